package book

import (
	"fmt"
	"strings"
)

// Kind identifies how a page is rendered.
type Kind int

const (
	KindIntro Kind = iota
	KindChapter
	KindClosing
	KindBackCover
)

// Page is one content page of the document. ID is the page's file base
// name inside the container; Paragraphs holds the body text. Back-cover
// pages carry no text and render the cover image instead.
type Page struct {
	ID         string
	Title      string
	Kind       Kind
	Paragraphs []string
	InTOC      bool
}

const (
	introPageID   = "intro"
	closingPageID = "closing"
	backCoverID   = "back_cover"
)

func buildPages(d *Document) []Page {
	pages := make([]Page, 0, len(d.Chapters)+3)

	intro := Page{
		ID:    introPageID,
		Title: d.Meta.Title,
		Kind:  KindIntro,
		InTOC: true,
	}
	if line := d.AuthorLine(); line != "" {
		intro.Paragraphs = append(intro.Paragraphs, line)
	}
	if note := strings.TrimSpace(d.Meta.IntroNote); note != "" {
		intro.Paragraphs = append(intro.Paragraphs, note)
	}
	pages = append(pages, intro)

	for _, ch := range d.Chapters {
		pages = append(pages, Page{
			ID:         fmt.Sprintf("chapter_%03d", ch.Index),
			Title:      ch.Title,
			Kind:       KindChapter,
			Paragraphs: splitParagraphs(ch.Text),
			InTOC:      true,
		})
	}

	closing := Page{
		ID:    closingPageID,
		Title: "Thank You",
		Kind:  KindClosing,
	}
	if note := strings.TrimSpace(d.Meta.ClosingNote); note != "" {
		closing.Paragraphs = append(closing.Paragraphs, note)
	}
	pages = append(pages, closing)

	if len(d.Cover) > 0 {
		pages = append(pages, Page{
			ID:    backCoverID,
			Title: d.Meta.Title,
			Kind:  KindBackCover,
		})
	}

	return pages
}

// maxParagraphLength bounds a rendered paragraph. Transcripts arrive as a
// single run of text; breaking it at sentence boundaries keeps chapter
// pages readable.
const maxParagraphLength = 1000

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		paragraphs = append(paragraphs, chunkSentences(block)...)
	}
	return paragraphs
}

func chunkSentences(block string) []string {
	if len(block) <= maxParagraphLength {
		return []string{block}
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range splitSentences(block) {
		if current.Len() > 0 && current.Len()+len(sentence) > maxParagraphLength {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// splitSentences splits on sentence-ending punctuation followed by a
// space. It is intentionally rough; transcripts carry no reliable
// structure beyond punctuation.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(text[start:i+1]))
			start = i + 2
		}
	}
	if start < len(text) {
		sentences = append(sentences, strings.TrimSpace(text[start:]))
	}
	return sentences
}
