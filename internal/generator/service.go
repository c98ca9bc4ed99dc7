package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-homepage/internal/logging"
	"github.com/goliatone/go-homepage/internal/markdown"
	"github.com/goliatone/go-homepage/internal/site"
	"github.com/goliatone/go-homepage/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled = errors.New("generator: service disabled")
	// ErrLoadFailures is returned when one or more content files could not be parsed.
	ErrLoadFailures     = errors.New("generator: content failed to load")
	errRendererRequired = errors.New("generator: template renderer is required")
	errSourceRequired   = errors.New("generator: content source is required")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	// ContentDir is passed to the content source, relative to its root.
	ContentDir      string
	BaseURL         string
	Title           string
	Description     string
	Author          string
	CleanBuild      bool
	Incremental     bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	StaticDirs      []string
	Workers         int
	Drafts          bool
	DuplicatePolicy site.Policy
	Parser          interfaces.ParseOptions
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	// Force re-renders every page, ignoring the manifest.
	Force  bool
	DryRun bool
	Drafts bool
	// Policy replaces the configured duplicate permalink policy when set.
	Policy site.Policy
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt     int
	PagesSkipped   int
	PagesRemoved   int
	RedirectsBuilt int
	AssetsBuilt    int
	AssetsSkipped  int
	FeedsBuilt     int
	Shadowed       []string
	Unpublished    []string
	Outputs        []string
	Duration       time.Duration
	Rendered       []RenderedPage
	Diagnostics    []RenderDiagnostic
	Errors         []error
	DryRun         bool
}

// ContentSource loads and renders documents. *markdown.Service satisfies it.
type ContentSource interface {
	LoadCorpus(ctx context.Context, dir string, opts interfaces.LoadOptions) (*markdown.Corpus, error)
	RenderDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ParseOptions) ([]byte, error)
}

// Dependencies lists the collaborators required by the generator.
type Dependencies struct {
	Source   ContentSource
	Renderer TemplateRenderer
	Writer   ArtifactWriter
	// Static is rooted at the site root; StaticDirs are resolved inside it.
	Static fs.FS
	Logger interfaces.Logger
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &service{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		now:    time.Now,
	}
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg    Config
	deps   Dependencies
	logger interfaces.Logger
	now    func() time.Time
}

type disabledService struct{}

// pageJob carries a routed page and its precomputed template data.
type pageJob struct {
	page    *site.Page
	context PageContext
	layout  string
	output  string
	hash    string
}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Renderer == nil {
		return nil, errRendererRequired
	}
	if s.deps.Source == nil {
		return nil, errSourceRequired
	}

	start := time.Now()
	generatedAt := s.now()

	corpus, err := s.deps.Source.LoadCorpus(ctx, s.contentDir(), interfaces.LoadOptions{
		Drafts:   opts.Drafts || s.cfg.Drafts,
		Tolerant: true,
		Parser:   s.cfg.Parser,
	})
	if err != nil {
		return nil, err
	}
	if len(corpus.Failures) > 0 {
		errs := make([]error, 0, len(corpus.Failures)+1)
		errs = append(errs, fmt.Errorf("%w: %d file(s)", ErrLoadFailures, len(corpus.Failures)))
		for _, failure := range corpus.Failures {
			errs = append(errs, failure.Err)
		}
		return nil, errors.Join(errs...)
	}

	policy := s.cfg.DuplicatePolicy
	if opts.Policy != "" {
		policy = opts.Policy
	}
	resolved, err := site.Resolve(corpus.Documents, site.Options{Policy: policy})
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		DryRun:      opts.DryRun,
		Diagnostics: make([]RenderDiagnostic, 0, len(resolved.Pages)),
	}
	for _, shadowed := range resolved.Shadowed {
		result.Shadowed = append(result.Shadowed, shadowed.Document.FilePath)
		s.logger.Warn("generator.page.shadowed",
			"document_path", shadowed.Document.FilePath,
			"permalink", shadowed.Permalink,
			"winner", shadowed.Winner,
		)
	}
	for _, doc := range resolved.Unpublished {
		result.Unpublished = append(result.Unpublished, doc.FilePath)
	}

	writer := s.deps.Writer
	if writer == nil {
		writer = noopWriter{}
	}
	if s.cfg.CleanBuild && !opts.DryRun {
		if err := writer.RemoveAll(ctx); err != nil {
			return nil, fmt.Errorf("generator: clean output: %w", err)
		}
	}

	var errorsSlice []error
	manifest, manifestErr := s.loadManifest(ctx, writer)
	if manifestErr != nil {
		errorsSlice = append(errorsSlice, manifestErr)
	}
	if manifest == nil {
		manifest = newBuildManifest()
	}

	siteMeta := s.siteMetadata(resolved)
	jobs := s.planPages(resolved, siteMeta)

	var (
		mu       sync.Mutex
		rendered = make([]RenderedPage, 0, len(jobs))
	)
	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		if outcome.err != nil {
			errorsSlice = append(errorsSlice, outcome.err)
			return
		}
		if outcome.skipped {
			result.PagesSkipped++
			return
		}
		result.PagesBuilt++
		rendered = append(rendered, outcome.page)
	}

	buildMeta := BuildMetadata{GeneratedAt: generatedAt, Options: opts}
	workerCount := s.effectiveWorkerCount(len(jobs))
	if workerCount <= 1 || len(jobs) <= 1 {
		for _, job := range jobs {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			collect(s.renderPage(ctx, siteMeta, buildMeta, job, manifest, opts.Force))
		}
	} else if err := s.renderConcurrently(ctx, siteMeta, buildMeta, jobs, workerCount, manifest, opts.Force, collect); err != nil {
		return result, err
	}

	sort.Slice(rendered, func(i, j int) bool {
		return rendered[i].Permalink < rendered[j].Permalink
	})

	sink := newArtifactSink(writer)
	outputs := map[string]struct{}{}
	for _, job := range jobs {
		outputs[job.output] = struct{}{}
	}

	if !opts.DryRun {
		if err := s.persistPages(ctx, sink, rendered); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}
	for i := range rendered {
		rendered[i].Checksum = computeHashFromString(rendered[i].HTML)
	}

	redirects, err := s.writeRedirects(ctx, sink, siteMeta, resolved, outputs, opts.DryRun)
	result.RedirectsBuilt = redirects
	if err != nil {
		errorsSlice = append(errorsSlice, err)
	}

	assetSummary, seenAssets, err := s.copyStatic(ctx, sink, manifest, opts.Force, opts.DryRun)
	if err != nil {
		errorsSlice = append(errorsSlice, err)
	}
	result.AssetsBuilt = assetSummary.Built
	result.AssetsSkipped = assetSummary.Skipped
	for asset := range seenAssets {
		outputs[asset] = struct{}{}
	}

	if s.cfg.GenerateSitemap {
		content := buildSitemap(s.cfg.BaseURL, pageSummaries(jobs), lastModified(jobs), generatedAt)
		outputs["sitemap.xml"] = struct{}{}
		if err := s.writeText(ctx, sink, "sitemap.xml", content, categorySitemap, "application/xml", opts.DryRun); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateRobots {
		content := buildRobots(s.cfg.BaseURL, s.cfg.GenerateSitemap)
		outputs["robots.txt"] = struct{}{}
		if err := s.writeText(ctx, sink, "robots.txt", content, categoryRobots, "text/plain; charset=utf-8", opts.DryRun); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateFeeds {
		count, err := s.writeFeeds(ctx, sink, siteMeta, jobs, generatedAt, opts.DryRun)
		result.FeedsBuilt = count
		if count > 0 {
			outputs[rssFeedPath] = struct{}{}
			outputs[atomFeedPath] = struct{}{}
		}
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if !opts.DryRun && len(errorsSlice) == 0 {
		keepPages := make(map[string]struct{}, len(jobs))
		for _, job := range jobs {
			keepPages[strings.ToLower(job.page.Document.ID.String())] = struct{}{}
		}
		var stale []string
		for _, page := range rendered {
			if previous, ok := manifest.lookupPage(page.DocumentID.String()); ok {
				if moved := strings.TrimSpace(previous.Output); moved != "" && moved != page.Output {
					if _, written := outputs[moved]; !written {
						stale = append(stale, moved)
					}
				}
			}
			manifest.setPage(manifestPage{
				DocumentID:   page.DocumentID.String(),
				Source:       page.Source,
				Permalink:    page.Permalink,
				Output:       page.Output,
				Layout:       page.Layout,
				Hash:         page.Hash,
				Checksum:     page.Checksum,
				LastModified: page.LastModified,
				RenderedAt:   generatedAt,
			})
		}
		stale = append(stale, manifest.prunePages(keepPages, outputs)...)
		if !s.cfg.CleanBuild {
			for _, output := range stale {
				if err := writer.Remove(ctx, output); err != nil {
					errorsSlice = append(errorsSlice, fmt.Errorf("generator: remove stale %s: %w", output, err))
					continue
				}
				result.PagesRemoved++
				s.logger.Info("generator.page.removed", "output", output)
			}
		}
		manifest.pruneAssets(seenAssets)
		manifest.GeneratedAt = generatedAt
		if err := s.persistManifest(ctx, sink, manifest); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	result.Rendered = rendered
	result.Outputs = sortedSet(outputs)
	result.Duration = time.Since(start)

	s.logger.Info("generator.build.complete",
		"pages_built", result.PagesBuilt,
		"pages_skipped", result.PagesSkipped,
		"pages_removed", result.PagesRemoved,
		"redirects", result.RedirectsBuilt,
		"assets_built", result.AssetsBuilt,
		"feeds", result.FeedsBuilt,
		"dry_run", opts.DryRun,
		"duration", result.Duration,
	)

	if len(errorsSlice) > 0 {
		result.Errors = append(result.Errors, errorsSlice...)
		return result, errors.Join(errorsSlice...)
	}
	return result, nil
}

func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.deps.Writer == nil {
		return nil
	}
	if err := s.deps.Writer.RemoveAll(ctx); err != nil {
		return fmt.Errorf("generator: clean output: %w", err)
	}
	s.logger.Info("generator.clean.complete")
	return nil
}

func (s *service) contentDir() string {
	if dir := strings.TrimSpace(s.cfg.ContentDir); dir != "" {
		return dir
	}
	return "."
}

func (s *service) siteMetadata(resolved *site.Site) SiteMetadata {
	meta := SiteMetadata{
		Title:       s.cfg.Title,
		Description: s.cfg.Description,
		Author:      s.cfg.Author,
		BaseURL:     strings.TrimRight(strings.TrimSpace(s.cfg.BaseURL), "/"),
		Collections: make(map[string][]PageSummary, len(resolved.Collections)),
	}
	for _, name := range resolved.CollectionNames() {
		members := resolved.Collections[name]
		summaries := make([]PageSummary, 0, len(members))
		for _, doc := range members {
			summaries = append(summaries, s.summary(doc))
		}
		meta.Collections[name] = summaries
	}
	return meta
}

func (s *service) summary(doc *interfaces.Document) PageSummary {
	permalink := markdown.NormalizePermalink(doc.Permalink())
	return PageSummary{
		Title:     doc.FrontMatter.Title,
		Permalink: permalink,
		URL:       s.siteURL(permalink),
		Excerpt:   doc.FrontMatter.Excerpt,
		Date:      doc.FrontMatter.Date,
		Category:  doc.FrontMatter.Category,
	}
}

func (s *service) siteURL(permalink string) string {
	if strings.TrimSpace(s.cfg.BaseURL) == "" {
		return permalink
	}
	return absoluteURL(s.cfg.BaseURL, permalink)
}

func (s *service) planPages(resolved *site.Site, siteMeta SiteMetadata) []pageJob {
	digests := collectionDigests(resolved)
	siteDigest := s.siteDigest()
	jobs := make([]pageJob, 0, len(resolved.Pages))
	for _, page := range resolved.Pages {
		doc := page.Document
		layout := s.layoutFor(doc)
		jobs = append(jobs, pageJob{
			page:   page,
			layout: layout,
			output: buildOutputPath(page.Permalink),
			hash:   pageHash(doc, layout, page.Permalink, siteDigest, digests),
			context: PageContext{
				PageSummary:   s.summary(doc),
				Description:   doc.FrontMatter.Description,
				Collection:    doc.Collection,
				Layout:        layout,
				Tags:          append([]string(nil), doc.FrontMatter.Tags...),
				AuthorProfile: doc.FrontMatter.AuthorProfile,
				Source:        doc.FilePath,
				FrontMatter:   doc.FrontMatter.Raw,
			},
		})
	}
	return jobs
}

// layoutFor honours the front matter layout when the renderer defines it.
// Otherwise pages use the default layout and collection items the single one.
func (s *service) layoutFor(doc *interfaces.Document) string {
	if name := strings.TrimSpace(doc.FrontMatter.Layout); name != "" {
		if s.deps.Renderer.Has(name) {
			return name
		}
		s.logger.Debug("generator.layout.fallback", "document_path", doc.FilePath, "layout", name)
	}
	if doc.Collection != markdown.DefaultCollection && s.deps.Renderer.Has(layoutSingle) {
		return layoutSingle
	}
	return layoutDefault
}

func (s *service) renderConcurrently(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildMeta BuildMetadata,
	jobs []pageJob,
	workers int,
	manifest *buildManifest,
	force bool,
	collect func(renderOutcome),
) error {
	queue := make(chan pageJob)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				collect(s.renderPage(ctx, siteMeta, buildMeta, job, manifest, force))
			}
		}()
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			close(queue)
			wg.Wait()
			return ctx.Err()
		case queue <- job:
		}
	}
	close(queue)
	wg.Wait()
	return nil
}

func (s *service) renderPage(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildMeta BuildMetadata,
	job pageJob,
	manifest *buildManifest,
	force bool,
) renderOutcome {
	doc := job.page.Document
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{
			DocumentID: doc.ID,
			Source:     doc.FilePath,
			Permalink:  job.page.Permalink,
			Layout:     job.layout,
		},
	}

	if err := ctx.Err(); err != nil {
		outcome.err = err
		outcome.diagnostic.Err = err
		return outcome
	}

	if s.cfg.Incremental && !force && manifest.shouldSkipPage(doc.ID.String(), job.hash, job.output) {
		outcome.skipped = true
		outcome.diagnostic.Skipped = true
		return outcome
	}

	start := time.Now()
	body, err := s.deps.Source.RenderDocument(ctx, doc, s.cfg.Parser)
	if err == nil {
		pageCtx := job.context
		pageCtx.Content = template.HTML(body)
		var html string
		html, err = s.deps.Renderer.RenderTemplate(job.layout, TemplateContext{
			Site:    siteMeta,
			Page:    pageCtx,
			Build:   buildMeta,
			Helpers: TemplateHelpers{baseURL: siteMeta.BaseURL},
		})
		outcome.page = RenderedPage{
			DocumentID:   doc.ID,
			Source:       doc.FilePath,
			Permalink:    job.page.Permalink,
			Output:       job.output,
			Layout:       job.layout,
			HTML:         html,
			Hash:         job.hash,
			LastModified: doc.LastModified,
		}
	}
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	outcome.page.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("generator: render %s with layout %q: %w", doc.FilePath, job.layout, err)
		logging.WithDocumentContext(s.logger, doc.FilePath, doc.Collection, job.page.Permalink).
			Error("generator.render.failed", "error", err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
	}
	return outcome
}

func (s *service) persistPages(ctx context.Context, sink *artifactSink, pages []RenderedPage) error {
	for _, page := range pages {
		if err := sink.write(ctx, writeFileRequest{
			Path:        page.Output,
			Content:     strings.NewReader(page.HTML),
			Size:        int64(len(page.HTML)),
			Category:    categoryPage,
			ContentType: "text/html; charset=utf-8",
			Checksum:    computeHashFromString(page.HTML),
		}); err != nil {
			return err
		}
	}
	return nil
}

// writeRedirects renders a stub for every redirect_from entry. A stub whose
// output file is already taken by a page is skipped.
func (s *service) writeRedirects(
	ctx context.Context,
	sink *artifactSink,
	siteMeta SiteMetadata,
	resolved *site.Site,
	outputs map[string]struct{},
	dryRun bool,
) (int, error) {
	if len(resolved.Redirects) == 0 {
		return 0, nil
	}
	if !s.deps.Renderer.Has(layoutRedirect) {
		return 0, fmt.Errorf("%w: %q", errLayoutMissing, layoutRedirect)
	}
	written := 0
	for _, redirect := range resolved.Redirects {
		output := buildOutputPath(redirect.From)
		if _, taken := outputs[output]; taken {
			s.logger.Warn("generator.redirect.skipped", "from", redirect.From, "to", redirect.To, "output", output)
			continue
		}
		html, err := s.deps.Renderer.RenderTemplate(layoutRedirect, RedirectContext{
			Site: siteMeta,
			From: redirect.From,
			To:   redirect.To,
			URL:  s.siteURL(redirect.To),
		})
		if err != nil {
			return written, fmt.Errorf("generator: render redirect %s: %w", redirect.From, err)
		}
		outputs[output] = struct{}{}
		if !dryRun {
			if err := sink.write(ctx, writeFileRequest{
				Path:        output,
				Content:     strings.NewReader(html),
				Size:        int64(len(html)),
				Category:    categoryRedirect,
				ContentType: "text/html; charset=utf-8",
			}); err != nil {
				return written, err
			}
		}
		written++
	}
	return written, nil
}

func (s *service) writeFeeds(
	ctx context.Context,
	sink *artifactSink,
	siteMeta SiteMetadata,
	jobs []pageJob,
	generatedAt time.Time,
	dryRun bool,
) (int, error) {
	var posts []PageContext
	for _, job := range jobs {
		if job.page.Document.Collection == markdown.PostsCollection {
			posts = append(posts, job.context)
		}
	}
	if len(posts) == 0 {
		return 0, nil
	}
	items := buildFeedItems(s.cfg.BaseURL, posts, generatedAt)
	if err := s.writeText(ctx, sink, rssFeedPath, buildRSSFeed(siteMeta, items, generatedAt), categoryFeed, "application/rss+xml", dryRun); err != nil {
		return 0, err
	}
	if err := s.writeText(ctx, sink, atomFeedPath, buildAtomFeed(siteMeta, items, generatedAt), categoryFeed, "application/atom+xml", dryRun); err != nil {
		return 1, err
	}
	return 2, nil
}

func (s *service) writeText(
	ctx context.Context,
	sink *artifactSink,
	name string,
	content string,
	category writeCategory,
	contentType string,
	dryRun bool,
) error {
	if dryRun {
		return nil
	}
	return sink.write(ctx, writeFileRequest{
		Path:        name,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    category,
		ContentType: contentType,
		Checksum:    computeHashFromString(content),
	})
}

func (s *service) loadManifest(ctx context.Context, writer ArtifactWriter) (*buildManifest, error) {
	data, err := writer.ReadFile(ctx, manifestFileName)
	if errors.Is(err, fs.ErrNotExist) {
		return newBuildManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("generator: read manifest: %w", err)
	}
	return parseManifest(data)
}

func (s *service) persistManifest(ctx context.Context, sink *artifactSink, manifest *buildManifest) error {
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	return sink.write(ctx, writeFileRequest{
		Path:        manifestFileName,
		Content:     strings.NewReader(string(data)),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
	})
}

func (s *service) effectiveWorkerCount(pages int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if pages > 0 && workers > pages {
		return pages
	}
	return workers
}

func pageSummaries(jobs []pageJob) []PageSummary {
	out := make([]PageSummary, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.context.PageSummary)
	}
	return out
}

func lastModified(jobs []pageJob) map[string]time.Time {
	out := make(map[string]time.Time, len(jobs))
	for _, job := range jobs {
		out[job.page.Permalink] = job.page.Document.LastModified
	}
	return out
}

// pageHash changes whenever the source, layout or permalink of a page does,
// and whenever the site digest does. Archive pages also depend on the
// collection they list.
func pageHash(doc *interfaces.Document, layout, permalink, siteDigest string, digests map[string]string) string {
	hasher := sha256.New()
	hasher.Write(doc.Checksum)
	hasher.Write([]byte("\x00" + layout + "\x00" + permalink + "\x00" + siteDigest))
	if layout == layoutArchive {
		if name, ok := doc.FrontMatter.Raw["collection"].(string); ok {
			hasher.Write([]byte("\x00" + digests[name]))
		}
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// siteDigest covers the inputs every page renders: site metadata and the
// template sources when the renderer can fingerprint them.
func (s *service) siteDigest() string {
	values := []string{
		s.cfg.Title,
		s.cfg.Author,
		strings.TrimRight(strings.TrimSpace(s.cfg.BaseURL), "/"),
		s.cfg.Description,
	}
	if digester, ok := s.deps.Renderer.(templateDigester); ok {
		values = append(values, digester.Digest())
	}
	return hashStrings(values)
}

func hashStrings(values []string) string {
	if len(values) == 0 {
		return ""
	}
	hasher := sha256.New()
	for _, value := range values {
		hasher.Write([]byte(value))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func collectionDigests(resolved *site.Site) map[string]string {
	digests := make(map[string]string, len(resolved.Collections))
	for name, members := range resolved.Collections {
		hasher := sha256.New()
		for _, doc := range members {
			hasher.Write([]byte(doc.FilePath))
			hasher.Write(doc.Checksum)
		}
		digests[name] = hex.EncodeToString(hasher.Sum(nil))
	}
	return digests
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}
