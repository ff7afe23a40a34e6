// Package chunker splits extracted document text into overlapping passages
// for embedding. Chunk boundaries are deterministic for a given
// configuration.
package chunker

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Chunker splits text into sentence-window chunks with fixed overlap.
// Markdown files are first split at heading boundaries so each chunk keeps
// its section context.
type Chunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

// New creates a chunker producing windows of sentencesPerChunk sentences,
// each overlapping the previous window by overlapSentences.
func New(sentencesPerChunk, overlapSentences int) *Chunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 8
	}
	if overlapSentences < 0 || overlapSentences >= sentencesPerChunk {
		overlapSentences = 0
	}
	return &Chunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Split returns the chunk texts for a document, in stable order. The
// filename selects the splitting strategy: markdown is sectioned at
// headings first, everything else is windowed directly.
func (c *Chunker) Split(filename, text string) []string {
	if strings.ToLower(filepath.Ext(filename)) == ".md" {
		if sections := splitMarkdown([]byte(text)); len(sections) > 0 {
			var chunks []string
			for _, sec := range sections {
				for _, window := range c.windows(sec.Body) {
					if sec.Path != "" {
						window = sec.Path + "\n\n" + window
					}
					chunks = append(chunks, window)
				}
			}
			return chunks
		}
	}
	return c.windows(text)
}

// windows splits text into overlapping sentence windows.
func (c *Chunker) windows(text string) []string {
	var sentences []string
	end := 0
	for _, loc := range c.splitter.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[loc[0]:loc[1]])
		end = loc[1]
	}
	// Text after the last terminal punctuation (or the whole input when
	// there is none) still counts as a sentence; dropping it would leave
	// that content unindexed.
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		sentences = append(sentences, tail)
	}
	if len(sentences) == 0 {
		return nil
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []string
	for i := 0; i < len(sentences); {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return chunks
}
