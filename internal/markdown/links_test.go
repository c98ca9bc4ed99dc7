package markdown

import "testing"

func TestExtractLinks(t *testing.T) {
	body := []byte(`See [publications](/publications/), [CV](https://example.org/cv.pdf "CV"),
[section](#retries) and [notes](../notes/).

![portrait](/images/profile.png)

Mail <someone@example.org> or visit <https://example.org/talks>.

` + "```\n[not a link](/ignored/)\n```\n")

	links := ExtractLinks(body)
	want := []Link{
		{Destination: "/publications/", Kind: LinkInternal},
		{Destination: "https://example.org/cv.pdf", Kind: LinkExternal},
		{Destination: "#retries", Kind: LinkAnchor},
		{Destination: "../notes/", Kind: LinkRelative},
		{Destination: "/images/profile.png", Kind: LinkInternal, Image: true},
		{Destination: "mailto:someone@example.org", Kind: LinkMailto},
		{Destination: "https://example.org/talks", Kind: LinkExternal},
	}

	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %+v", len(want), len(links), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Fatalf("link %d = %+v, want %+v", i, links[i], want[i])
		}
	}
}

func TestExtractLinksRawHTML(t *testing.T) {
	body := []byte(`Read the <a href="/publications/">papers</a> or <a class="btn"
href='files/slides.pdf'>slides</a>.

<div class="gallery">
  <img src="/images/talk.jpg" alt="talk">
  <a href="https://example.org/?a=1&amp;b=2">external</a>
</div>

` + "`<a href=\"/code-span/\">`\n\n```html\n<a href=\"/fenced/\">x</a>\n```\n")

	links := ExtractLinks(body)
	want := []Link{
		{Destination: "/publications/", Kind: LinkInternal},
		{Destination: "files/slides.pdf", Kind: LinkRelative},
		{Destination: "/images/talk.jpg", Kind: LinkInternal, Image: true},
		{Destination: "https://example.org/?a=1&b=2", Kind: LinkExternal},
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %+v", len(want), len(links), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Fatalf("link %d = %+v, want %+v", i, links[i], want[i])
		}
	}
}

func TestClassifyLink(t *testing.T) {
	cases := map[string]LinkKind{
		"/about/":                 LinkInternal,
		"//cdn.example.org/x.js":  LinkExternal,
		"http://example.org":      LinkExternal,
		"mailto:a@example.org":    LinkMailto,
		"#top":                    LinkAnchor,
		"files/paper.pdf":         LinkRelative,
		"ftp://example.org/file":  LinkOther,
	}
	for dest, want := range cases {
		if got := ClassifyLink(dest); got != want {
			t.Fatalf("ClassifyLink(%q) = %q, want %q", dest, got, want)
		}
	}
}

func TestLinkPath(t *testing.T) {
	link := Link{Destination: "/publications/?year=2020#top"}
	if got := link.Path(); got != "/publications/" {
		t.Fatalf("Path() = %q", got)
	}
}
