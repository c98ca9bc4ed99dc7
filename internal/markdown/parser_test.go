package markdown

import (
	"strings"
	"testing"

	"github.com/goliatone/go-homepage/pkg/interfaces"
)

func TestGoldmarkParser_HeadingIDs(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	html, err := parser.Parse([]byte("# Circuit Breakers\n\nClosed, open, half-open."))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(html), `<h1 id="circuit-breakers">Circuit Breakers</h1>`) {
		t.Fatalf("expected heading with generated id, got %s", html)
	}
}

func TestGoldmarkParser_GFMTables(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	html, err := parser.Parse([]byte("| state | calls |\n| --- | --- |\n| open | rejected |\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(html), "<table>") {
		t.Fatalf("expected table output, got %s", html)
	}
}

func TestGoldmarkParser_CodeBlocksAreVerbatim(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	html, err := parser.Parse([]byte("```go\nif x < 3 {}\n```\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(html), `<code class="language-go">if x &lt; 3 {}`) {
		t.Fatalf("expected escaped fenced code, got %s", html)
	}
}

func TestGoldmarkParser_SafeMode(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	source := []byte("<div class=\"note\">raw</div>\n")

	unsafeHTML, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(unsafeHTML), `<div class="note">`) {
		t.Fatalf("expected raw HTML to pass through, got %s", unsafeHTML)
	}

	safeHTML, err := parser.ParseWithOptions(source, interfaces.ParseOptions{SafeMode: true})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if strings.Contains(string(safeHTML), `<div class="note">`) {
		t.Fatalf("expected raw HTML to be omitted, got %s", safeHTML)
	}
}

func TestGoldmarkParser_HardWraps(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	html, err := parser.ParseWithOptions([]byte("line one\nline two"), interfaces.ParseOptions{HardWraps: true})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if !strings.Contains(string(html), "<br") {
		t.Fatalf("expected hard line break, got %s", html)
	}
}

func TestCollectExtensions(t *testing.T) {
	if got := len(collectExtensions(nil)); got != 4 {
		t.Fatalf("expected 4 default extensions, got %d", got)
	}
	if got := len(collectExtensions([]string{"table", "Table", "unknown"})); got != 1 {
		t.Fatalf("expected duplicates and unknown names to be dropped, got %d", got)
	}
}
