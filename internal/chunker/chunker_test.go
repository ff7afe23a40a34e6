package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowsOverlap(t *testing.T) {
	c := New(3, 1)
	text := "One. Two. Three. Four. Five."

	chunks := c.Split("notes.txt", text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "One. Two. Three.", chunks[0])
	assert.Equal(t, "Three. Four. Five.", chunks[1], "windows overlap by one sentence")
}

func TestWindowsDeterministic(t *testing.T) {
	c := New(4, 2)
	text := strings.Repeat("A sentence here. ", 20)

	first := c.Split("a.txt", text)
	second := c.Split("a.txt", text)
	assert.Equal(t, first, second, "chunk boundaries are stable for a given configuration")
	assert.NotEmpty(t, first)
}

func TestWindowsKeepsUnpunctuatedTail(t *testing.T) {
	c := New(3, 0)
	text := "First sentence. Second sentence. Key API token is XYZZY-12345 with no trailing period"

	chunks := c.Split("notes.txt", text)
	joined := strings.Join(chunks, " ")
	assert.Contains(t, joined, "XYZZY-12345", "content after the last terminal punctuation is still indexed")
	require.Len(t, chunks, 1)
	assert.Equal(t, "First sentence. Second sentence. Key API token is XYZZY-12345 with no trailing period", chunks[0])
}

func TestWindowsTailStartsNewWindow(t *testing.T) {
	c := New(2, 0)
	chunks := c.Split("notes.txt", "One. Two. trailing fragment")
	require.Len(t, chunks, 2)
	assert.Equal(t, "One. Two.", chunks[0])
	assert.Equal(t, "trailing fragment", chunks[1])
}

func TestWindowsNoSentenceBoundary(t *testing.T) {
	c := New(3, 1)
	chunks := c.Split("a.txt", "no terminal punctuation at all")
	require.Len(t, chunks, 1)
	assert.Equal(t, "no terminal punctuation at all", chunks[0])
}

func TestWindowsEmpty(t *testing.T) {
	c := New(3, 1)
	assert.Empty(t, c.Split("a.txt", "   \n "))
}

func TestSplitMarkdownSections(t *testing.T) {
	c := New(10, 0)
	doc := `# Guide

Intro sentence.

## Install

Run the installer.

## Configure

Edit the file.
`
	chunks := c.Split("guide.md", doc)
	require.NotEmpty(t, chunks)

	joined := strings.Join(chunks, "\n---\n")
	assert.Contains(t, joined, "Guide > Install")
	assert.Contains(t, joined, "Guide > Configure")
	assert.Contains(t, joined, "Run the installer.")
	assert.Contains(t, joined, "Edit the file.")
}

func TestSplitMarkdownNoHeadingsFallsBack(t *testing.T) {
	c := New(2, 0)
	chunks := c.Split("plain.md", "First. Second. Third.")
	require.Len(t, chunks, 2)
	assert.Equal(t, "First. Second.", chunks[0])
	assert.Equal(t, "Third.", chunks[1])
}

func TestSplitMarkdownPreamble(t *testing.T) {
	chunks := New(10, 0).Split("doc.md", "Before any heading.\n\n# Section\n\nBody text.")
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0], "Before any heading.")
}
