package book

import (
	"strings"
	"time"

	"podbook/internal/textutil"
)

// Chapter is one transcribed episode. Index is the 1-based position in
// the finished document; it is assigned by Assemble, not by callers.
type Chapter struct {
	Index     int
	Title     string
	Text      string
	Published time.Time
}

// Metadata describes the podcast the document is built from.
type Metadata struct {
	Title       string
	Author      string
	Language    string
	IntroNote   string
	ClosingNote string
}

// Document is the assembled book model. It is built once by Assemble and
// read by the writer; nothing mutates it afterward.
type Document struct {
	Meta     Metadata
	Cover    []byte
	Chapters []Chapter

	pages []Page
}

// Assemble builds a document from podcast metadata, the chapters that were
// successfully produced, and optional cover image bytes. Chapters are
// renumbered 1..n in the order given, so failed episodes leave no gap.
// Zero chapters is valid: the document then holds only the introduction
// and closing pages.
func Assemble(meta Metadata, chapters []Chapter, cover []byte) *Document {
	if meta.Language == "" {
		meta.Language = "en"
	}

	numbered := make([]Chapter, len(chapters))
	copy(numbered, chapters)
	for i := range numbered {
		numbered[i].Index = i + 1
	}

	doc := &Document{
		Meta:     meta,
		Cover:    cover,
		Chapters: numbered,
	}
	doc.pages = buildPages(doc)
	return doc
}

// Pages returns the content pages in spine order: introduction, chapters,
// closing, and the back-cover page when a cover is present. The navigation
// page itself is the writer's concern and is not listed here.
func (d *Document) Pages() []Page {
	return d.pages
}

// TOC returns the pages that belong in the table of contents, in spine
// order. Closing and back-cover pages are spine-only.
func (d *Document) TOC() []Page {
	var toc []Page
	for _, p := range d.pages {
		if p.InTOC {
			toc = append(toc, p)
		}
	}
	return toc
}

// FileName returns the deterministic output name for this document, so a
// re-run for the same podcast overwrites the previous file.
func (d *Document) FileName() string {
	return textutil.SanitizeTitle(d.Meta.Title) + ".epub"
}

// AuthorLine renders the byline for the introduction page.
func (d *Document) AuthorLine() string {
	author := strings.TrimSpace(d.Meta.Author)
	if author == "" {
		return ""
	}
	return "by " + author
}
