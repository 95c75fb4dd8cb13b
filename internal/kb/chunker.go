// File path: internal/kb/chunker.go
package kb

import (
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	defaultChunkSize    = 512
	defaultChunkOverlap = 64
	defaultMinChunkSize = 100

	// Rough characters-per-token factor used when delegating oversized
	// sentences to the character splitter.
	charsPerToken = 4
)

// Chunker splits extracted document text into retrieval-sized chunks.
// Splitting is sentence-aware: a sentence is never divided across chunks
// unless it alone exceeds the chunk budget, in which case it is re-split on
// character boundaries.
type Chunker struct {
	Size         int // token budget per chunk
	Overlap      int // token budget carried into the next chunk
	MinChunkSize int // minimum token count for a trailing chunk

	splitter textsplitter.RecursiveCharacter
}

// PageMarker records that the text starting at Offset belongs to Page.
type PageMarker struct {
	Offset int
	Page   int
}

// NewChunker constructs a Chunker with the provided token budgets. Zero or
// negative values fall back to defaults; an overlap at or above the chunk
// size is clamped to half of it.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap <= 0 {
		overlap = defaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{
		Size:         size,
		Overlap:      overlap,
		MinChunkSize: defaultMinChunkSize,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size*charsPerToken),
			textsplitter.WithChunkOverlap(0),
		),
	}
}

// CountTokens approximates the token count of text by whitespace words.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// sentence is a trimmed sentence with its byte offset in the source text.
// endsLine records that the source terminated the sentence with a newline;
// joinSentences restores that break so heading heuristics see line
// boundaries in chunk content.
type sentence struct {
	text     string
	start    int
	endsLine bool
}

// joinSentences reassembles chunk content, restoring the line break after
// sentences that ended one and a single space elsewhere.
func joinSentences(sentences []sentence) string {
	var b strings.Builder
	for i, s := range sentences {
		if i > 0 {
			if sentences[i-1].endsLine {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(s.text)
	}
	return b.String()
}

// ChunkText splits text into overlapping chunks. The optional markers map
// character offsets to page numbers so each chunk can carry provenance.
// Returned chunks have ordinals assigned but no identity or document binding.
func (c *Chunker) ChunkText(text string, markers []PageMarker) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	sentences := c.splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	var current []sentence
	currentTokens := 0

	flush := func(force bool) {
		if len(current) == 0 {
			return
		}
		content := joinSentences(current)
		tokens := CountTokens(content)
		if !force && tokens < c.MinChunkSize && len(chunks) > 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Ordinal:      len(chunks),
			Content:      content,
			TokenCount:   tokens,
			PageNumber:   pageForOffset(markers, current[0].start),
			SectionTitle: extractSectionTitle(content),
		})
	}

	for _, s := range sentences {
		tokens := CountTokens(s.text)
		if currentTokens+tokens > c.Size && len(current) > 0 {
			flush(true)
			// Seed the next chunk with trailing sentences worth up to the
			// overlap budget.
			var overlap []sentence
			overlapTokens := 0
			for i := len(current) - 1; i >= 0; i-- {
				t := CountTokens(current[i].text)
				if overlapTokens+t > c.Overlap {
					break
				}
				overlap = append([]sentence{current[i]}, overlap...)
				overlapTokens += t
			}
			current = overlap
			currentTokens = overlapTokens
		}
		current = append(current, s)
		currentTokens += tokens
	}
	flush(false)
	return chunks
}

// ChunkPages chunks paginated text while preserving page provenance.
func (c *Chunker) ChunkPages(pages []Page) []Chunk {
	var combined strings.Builder
	markers := make([]PageMarker, 0, len(pages))
	for _, page := range pages {
		markers = append(markers, PageMarker{Offset: combined.Len(), Page: page.Number})
		combined.WriteString(page.Text)
		combined.WriteString("\n\n")
	}
	return c.ChunkText(combined.String(), markers)
}

var sentenceDelimiters = ".!?\n"

// splitSentences divides text after terminal punctuation or newlines.
// Each sentence carries its byte offset in text so page attribution stays
// anchored to source positions. Sentences that alone exceed the chunk
// budget are re-split on character boundaries.
func (c *Chunker) splitSentences(text string) []sentence {
	var sentences []sentence
	var buf strings.Builder
	bufStart := 0
	emit := func(end int, endsLine bool) {
		raw := buf.String()
		buf.Reset()
		start := bufStart
		bufStart = end
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			// A bare newline after terminal punctuation still ends the line
			// of the sentence before it.
			if strings.Contains(raw, "\n") && len(sentences) > 0 {
				sentences[len(sentences)-1].endsLine = true
			}
			return
		}
		start += len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
		if CountTokens(trimmed) > c.Size {
			parts, err := c.splitter.SplitText(trimmed)
			if err == nil && len(parts) > 1 {
				off := start
				for _, part := range parts {
					sentences = append(sentences, sentence{text: part, start: off})
					off += len(part)
				}
				sentences[len(sentences)-1].endsLine = endsLine
				return
			}
		}
		sentences = append(sentences, sentence{text: trimmed, start: start, endsLine: endsLine})
	}
	for i, r := range text {
		buf.WriteRune(r)
		if strings.ContainsRune(sentenceDelimiters, r) {
			// Delimiters are ASCII, so the next byte starts the next sentence.
			emit(i+1, r == '\n')
		}
	}
	emit(len(text), false)
	return sentences
}

func pageForOffset(markers []PageMarker, offset int) *int {
	for i := len(markers) - 1; i >= 0; i-- {
		if markers[i].Offset <= offset {
			page := markers[i].Page
			return &page
		}
	}
	return nil
}

var numberedHeading = regexp.MustCompile(`^\d+\.?\d*\.?\s+(.+)$`)

// extractSectionTitle returns a heading when the chunk opens with one:
// markdown headers, numbered sections, ALL-CAPS lines, or a short first line
// followed by longer prose.
func extractSectionTitle(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 {
		return ""
	}
	first := strings.TrimSpace(lines[0])
	if first == "" {
		return ""
	}
	if strings.HasPrefix(first, "#") {
		return strings.TrimSpace(strings.TrimLeft(first, "#"))
	}
	if len(first) < 100 {
		if match := numberedHeading.FindStringSubmatch(first); match != nil {
			return strings.TrimSpace(match[1])
		}
		if first == strings.ToUpper(first) && strings.IndexFunc(first, isLetter) >= 0 {
			return first
		}
	}
	if len(first) < 80 && len(lines) > 1 {
		second := strings.TrimSpace(lines[1])
		if len(second) > len(first) {
			return first
		}
	}
	return ""
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
