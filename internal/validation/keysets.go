package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-homepage/internal/markdown"
	"github.com/goliatone/go-homepage/pkg/interfaces"
)

// checkKeySets reports documents that share a route but disagree on the set
// of front matter keys. The lexicographically first path is the reference.
func checkKeySets(report *Report, docs []*interfaces.Document) {
	groups := map[string][]*interfaces.Document{}
	for _, doc := range docs {
		key := markdown.RouteKey(doc.Permalink())
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], doc)
	}

	permalinks := make([]string, 0, len(groups))
	for permalink, members := range groups {
		if len(members) > 1 {
			permalinks = append(permalinks, permalink)
		}
	}
	sort.Strings(permalinks)

	for _, permalink := range permalinks {
		members := groups[permalink]
		sort.Slice(members, func(i, j int) bool { return members[i].FilePath < members[j].FilePath })
		reference := members[0]
		refKeys := reference.FrontMatter.Keys()
		for _, doc := range members[1:] {
			missing, extra := diffKeys(refKeys, doc.FrontMatter.Keys())
			if len(missing) == 0 && len(extra) == 0 {
				continue
			}
			report.add(SeverityError, CodeKeysetInconsistent, doc.FilePath, "",
				keysetMessage(permalink, reference.FilePath, missing, extra))
		}
	}
}

func diffKeys(reference, candidate []string) (missing, extra []string) {
	ref := make(map[string]struct{}, len(reference))
	for _, key := range reference {
		ref[key] = struct{}{}
	}
	seen := make(map[string]struct{}, len(candidate))
	for _, key := range candidate {
		seen[key] = struct{}{}
		if _, ok := ref[key]; !ok {
			extra = append(extra, key)
		}
	}
	for _, key := range reference {
		if _, ok := seen[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing, extra
}

func keysetMessage(permalink, reference string, missing, extra []string) string {
	parts := []string{fmt.Sprintf("keys differ from %s which shares permalink %s", reference, permalink)}
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "extra "+strings.Join(extra, ", "))
	}
	return strings.Join(parts, "; ")
}
