package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestDocumentUUIDIsStable(t *testing.T) {
	first := DocumentUUID("_pages/about.md")
	second := DocumentUUID("./_pages/about.md")
	if first == uuid.Nil {
		t.Fatal("expected non-nil id")
	}
	if first != second {
		t.Fatalf("expected equal ids for equivalent paths, got %s and %s", first, second)
	}
}

func TestDocumentUUIDDistinguishesPaths(t *testing.T) {
	if DocumentUUID("_pages/about.md") == DocumentUUID("_pages/about-2.md") {
		t.Fatal("expected distinct ids for distinct paths")
	}
}

func TestDocumentUUIDEmpty(t *testing.T) {
	if got := DocumentUUID("  "); got != uuid.Nil {
		t.Fatalf("expected nil id for empty path, got %s", got)
	}
}
