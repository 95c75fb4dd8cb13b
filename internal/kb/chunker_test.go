// File path: internal/kb/chunker_test.go
package kb

import (
	"strings"
	"testing"
)

func TestChunkTextEmptyInput(t *testing.T) {
	c := NewChunker(32, 8)
	if chunks := c.ChunkText("", nil); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty text, got %d", len(chunks))
	}
	if chunks := c.ChunkText("   \n\t  ", nil); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank text, got %d", len(chunks))
	}
}

func TestChunkTextRespectsTokenBudget(t *testing.T) {
	c := NewChunker(10, 0)
	c.MinChunkSize = 1
	var sentences []string
	for i := 0; i < 8; i++ {
		sentences = append(sentences, "alpha beta gamma delta epsilon.")
	}
	chunks := c.ChunkText(strings.Join(sentences, " "), nil)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Ordinal != i {
			t.Fatalf("expected ordinal %d, got %d", i, chunk.Ordinal)
		}
		if chunk.TokenCount > 10 {
			t.Fatalf("chunk %d exceeds budget: %d tokens", i, chunk.TokenCount)
		}
	}
}

func TestChunkTextOverlapCarriesSentences(t *testing.T) {
	c := NewChunker(12, 6)
	c.MinChunkSize = 1
	text := "one two three four five six. seven eight nine ten eleven twelve. thirteen fourteen fifteen sixteen seventeen eighteen."
	chunks := c.ChunkText(text, nil)
	if len(chunks) < 2 {
		t.Fatalf("expected at least two chunks, got %d", len(chunks))
	}
	// The sentence that closed the first chunk should reappear at the head
	// of the second.
	tail := "seven eight nine ten eleven twelve."
	if !strings.Contains(chunks[0].Content, tail) {
		t.Fatalf("expected first chunk to end with %q, got %q", tail, chunks[0].Content)
	}
	if !strings.HasPrefix(chunks[1].Content, tail) {
		t.Fatalf("expected overlap at head of second chunk, got %q", chunks[1].Content)
	}
}

func TestChunkPagesTracksProvenance(t *testing.T) {
	c := NewChunker(512, 0)
	c.MinChunkSize = 1
	pages := []Page{
		{Number: 1, Text: "First page text."},
		{Number: 2, Text: "Second page text."},
	}
	chunks := c.ChunkPages(pages)
	if len(chunks) == 0 {
		t.Fatalf("expected chunks from paginated input")
	}
	if chunks[0].PageNumber == nil || *chunks[0].PageNumber != 1 {
		t.Fatalf("expected first chunk on page 1, got %+v", chunks[0].PageNumber)
	}
}

func TestChunkPagesAttributesBoundarySpans(t *testing.T) {
	c := NewChunker(12, 0)
	c.Overlap = 1
	c.MinChunkSize = 1
	pages := []Page{
		{Number: 1, Text: "one two three four five six seven eight nine ten."},
		{Number: 2, Text: "eleven twelve thirteen fourteen fifteen sixteen."},
	}
	chunks := c.ChunkPages(pages)
	if len(chunks) != 2 {
		t.Fatalf("expected two chunks, got %d", len(chunks))
	}
	if chunks[0].PageNumber == nil || *chunks[0].PageNumber != 1 {
		t.Fatalf("expected first chunk on page 1, got %+v", chunks[0].PageNumber)
	}
	// The second chunk begins with page-2 text, so it must not inherit
	// page 1 from the boundary padding.
	if chunks[1].PageNumber == nil || *chunks[1].PageNumber != 2 {
		t.Fatalf("expected second chunk on page 2, got %+v", chunks[1].PageNumber)
	}
}

func TestChunkTextExtractsHeadings(t *testing.T) {
	c := NewChunker(512, 0)
	c.MinChunkSize = 1
	cases := []struct {
		name string
		text string
		want string
	}{
		{"markdown", "# Overview\nThis section explains the architecture in detail. It covers storage and retrieval.", "Overview"},
		{"numbered", "1. Billing Rules\nInvoices are issued monthly. Refunds follow the same cycle.", "Billing Rules"},
		{"all caps", "GLOSSARY\nTerms and definitions used throughout the handbook follow below.", "GLOSSARY"},
		{"short title line", "Quarterly Report\nRevenue grew by twelve percent over the previous quarter.", "Quarterly Report"},
		{"prose", "Plain prose with no heading at all. It keeps going for a while longer.", ""},
	}
	for _, tc := range cases {
		chunks := c.ChunkText(tc.text, nil)
		if len(chunks) != 1 {
			t.Fatalf("%s: expected one chunk, got %d", tc.name, len(chunks))
		}
		if got := chunks[0].SectionTitle; got != tc.want {
			t.Fatalf("%s: section title %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestChunkTextKeepsHeadingLineBreak(t *testing.T) {
	c := NewChunker(512, 0)
	c.MinChunkSize = 1
	chunks := c.ChunkText("# Overview\nThis section explains the architecture in detail.", nil)
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Content, "# Overview\n") {
		t.Fatalf("heading line break lost in chunk content: %q", chunks[0].Content)
	}
}

func TestExtractSectionTitle(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"# Overview\nBody text follows here.", "Overview"},
		{"1.2 Billing Rules\nLonger explanation of the rules.", "Billing Rules"},
		{"GLOSSARY\nTerms and definitions below.", "GLOSSARY"},
		{"Plain paragraph with no heading at all, just prose.", ""},
	}
	for _, tc := range cases {
		if got := extractSectionTitle(tc.text); got != tc.want {
			t.Fatalf("extractSectionTitle(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
