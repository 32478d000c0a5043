package utils

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried from coarsest to finest: paragraphs, lines,
// words, and finally single characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// TextSplitter splits text recursively on separators so that each chunk
// stays within ChunkSize characters while consecutive chunks share roughly
// ChunkOverlap characters. Lengths are counted in runes.
type TextSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func NewTextSplitter(chunkSize, chunkOverlap int) *TextSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &TextSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

// SplitText splits a long string into overlapping chunks of at most
// chunkSize characters, preferring paragraph, line and word boundaries.
func SplitText(text string, chunkSize int, overlap int) []string {
	return NewTextSplitter(chunkSize, overlap).Split(text)
}

func (s *TextSplitter) Split(text string) []string {
	return s.split(text, s.Separators)
}

func (s *TextSplitter) split(text string, separators []string) []string {
	var final []string

	// Pick the first separator present in the text; the finer ones are kept
	// for pieces that are still too long.
	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var good []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(finer) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, finer)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge packs small pieces into chunks, carrying the tail of each chunk into
// the next one as overlap. Pieces already carry their separator.
func (s *TextSplitter) merge(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	for _, piece := range pieces {
		l := runeLen(piece)
		if total+l > s.ChunkSize && len(current) > 0 {
			if chunk := joinChunk(current); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.ChunkOverlap || (total+l > s.ChunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += l
	}

	if chunk := joinChunk(current); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitKeepingSeparator splits on sep and glues the separator to the start
// of the following piece. Empty pieces are dropped.
func splitKeepingSeparator(text, sep string) []string {
	var raw []string
	if sep == "" {
		raw = make([]string, 0, len(text))
		for _, r := range text {
			raw = append(raw, string(r))
		}
	} else {
		parts := strings.Split(text, sep)
		raw = make([]string, 0, len(parts))
		raw = append(raw, parts[0])
		for _, p := range parts[1:] {
			raw = append(raw, sep+p)
		}
	}

	pieces := raw[:0]
	for _, p := range raw {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

func joinChunk(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
