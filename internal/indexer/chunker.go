// Package indexer turns source documents into stored, indexed chunks:
// extract, chunk, write, ledger, edges, keyword index, embeddings.
package indexer

import (
	"regexp"
	"strings"
)

// Chunking strategies.
const (
	StrategyHeading   = "heading"
	StrategyParagraph = "paragraph"
	StrategyFunction  = "function"
	StrategyFixed     = "fixed"
)

// funcBoundary marks lines that open a function or class definition in
// the common scripting and systems languages.
var funcBoundary = regexp.MustCompile(
	`^(def |class |function |const |let |var |export |pub fn |fn |func )`)

// paragraphSplit separates text on blank lines.
var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// ChunkText splits text with the given strategy. Chunks are bounded by
// size (in characters, approximately) and carry the last overlap
// characters of the previous chunk when overlap > 0. Whitespace-only
// chunks are dropped; the result may be empty for whitespace-only input.
func ChunkText(text, strategy string, size, overlap int) []string {
	switch strategy {
	case StrategyHeading:
		return chunkByBoundary(text, size, overlap, isHeading)
	case StrategyParagraph:
		return chunkParagraphs(text, size, overlap)
	case StrategyFunction:
		return chunkByBoundary(text, size, overlap, isFunctionStart)
	default:
		return chunkFixed(text, size, overlap)
	}
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, "#")
}

func isFunctionStart(line string) bool {
	return funcBoundary.MatchString(strings.TrimLeft(line, " \t"))
}

// chunkByBoundary splits on boundary lines (headings or definitions),
// flushing the buffer whenever a boundary starts or the size budget is
// exceeded. The heading and function strategies differ only in the
// boundary predicate.
func chunkByBoundary(text string, size, overlap int, boundary func(string) bool) []string {
	var (
		chunks    []string
		buffer    []string
		bufferLen int
	)
	flush := func(carryOverlap bool, next string) {
		chunk := strings.Join(buffer, "\n")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		buffer = buffer[:0]
		if carryOverlap && overlap > 0 {
			buffer = append(buffer, tail(chunk, overlap))
		}
		if next != "" {
			buffer = append(buffer, next)
		}
		bufferLen = 0
		for _, b := range buffer {
			bufferLen += len(b)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if boundary(line) && bufferLen > 0 {
			flush(true, line)
			continue
		}
		buffer = append(buffer, line)
		bufferLen += len(line) + 1
		if bufferLen >= size {
			flush(true, "")
		}
	}
	if len(buffer) > 0 {
		flush(false, "")
	}
	return chunks
}

// chunkParagraphs packs whole paragraphs into chunks up to size.
func chunkParagraphs(text string, size, overlap int) []string {
	var (
		chunks []string
		buffer string
	)
	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		switch {
		case buffer != "" && len(buffer)+len(para)+2 > size:
			chunks = append(chunks, buffer)
			if overlap > 0 {
				buffer = tail(buffer, overlap) + "\n\n" + para
			} else {
				buffer = para
			}
		case buffer != "":
			buffer += "\n\n" + para
		default:
			buffer = para
		}
	}
	if strings.TrimSpace(buffer) != "" {
		chunks = append(chunks, buffer)
	}
	return chunks
}

// chunkFixed splits by character count with a trailing overlap. Overlap
// is clamped below size so every step makes progress.
func chunkFixed(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1000
	}
	effectiveOverlap := 0
	if size > 1 && overlap > 0 {
		effectiveOverlap = overlap
		if effectiveOverlap > size-1 {
			effectiveOverlap = size - 1
		}
	}

	var chunks []string
	for start := 0; start < len(text); {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunk := text[start:end]
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(text) {
			break
		}
		start = end - effectiveOverlap
	}
	return chunks
}

// tail returns the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// StrategyForFile picks a chunking strategy from the file extension:
// markdown splits on headings, code on definitions, prose on paragraphs.
// Everything else uses the configured default.
func StrategyForFile(ext, configured string) string {
	switch strings.ToLower(ext) {
	case ".md", ".markdown":
		return StrategyHeading
	case ".txt", ".text", ".log":
		return StrategyParagraph
	case ".py", ".js", ".ts", ".go", ".rs", ".java", ".c", ".cpp", ".h",
		".rb", ".php", ".swift", ".kt", ".scala", ".sh", ".bash", ".zsh",
		".r", ".jl", ".lua", ".pl":
		return StrategyFunction
	default:
		return configured
	}
}
