package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"podbook/internal/book"
	"podbook/internal/fileutil"
)

// MimeType is the EPUB container media type. It must be the archive's
// first entry, stored without compression.
const MimeType = "application/epub+zip"

const contentDir = "OEBPS"

// Writer packages a book document into an EPUB 3 file.
type Writer struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock replaces the modification-time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithIdentifier replaces the publication identifier source (for testing).
func WithIdentifier(newID func() string) Option {
	return func(w *Writer) { w.newID = newID }
}

// NewWriter creates an EPUB writer. By default each written file gets a
// fresh urn:uuid identifier and the current time as its modified stamp.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		now:   time.Now,
		newID: func() string { return "urn:uuid:" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write packages the document at outputPath, replacing any previous file.
// The write is atomic: a failure leaves the previous file untouched.
func (w *Writer) Write(doc *book.Document, outputPath string) error {
	identifier := w.newID()
	modified := w.now().UTC().Format("2006-01-02T15:04:05Z")

	err := fileutil.WriteAtomic(outputPath, func(out io.Writer) error {
		return w.writeArchive(out, doc, identifier, modified)
	})
	if err != nil {
		return fmt.Errorf("epub: write %s: %w", outputPath, err)
	}
	return nil
}

func (w *Writer) writeArchive(out io.Writer, doc *book.Document, identifier, modified string) error {
	zw := zip.NewWriter(out)

	mime, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(mime, MimeType); err != nil {
		return err
	}

	if err := addFile(zw, "META-INF/container.xml", []byte(containerXML)); err != nil {
		return err
	}
	if err := addFile(zw, contentDir+"/styles.css", []byte(stylesCSS)); err != nil {
		return err
	}
	if len(doc.Cover) > 0 {
		if err := addFile(zw, contentDir+"/cover.jpg", doc.Cover); err != nil {
			return err
		}
	}

	pages := doc.Pages()
	for _, page := range pages {
		if err := w.addPage(zw, doc, page); err != nil {
			return fmt.Errorf("render page %s: %w", page.ID, err)
		}
	}
	if err := w.addNav(zw, doc); err != nil {
		return err
	}
	if err := w.addNCX(zw, doc, identifier); err != nil {
		return err
	}
	if err := w.addPackage(zw, doc, identifier, modified); err != nil {
		return err
	}

	return zw.Close()
}

func addFile(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}

type paragraphData struct {
	Text  string
	Class string
}

type pageData struct {
	Title       string
	Language    string
	ShowHeading bool
	CoverImage  bool
	Paragraphs  []paragraphData
}

func (w *Writer) addPage(zw *zip.Writer, doc *book.Document, page book.Page) error {
	data := pageData{
		Title:       escapeXML(page.Title),
		Language:    doc.Meta.Language,
		ShowHeading: page.Kind != book.KindBackCover,
		CoverImage:  page.Kind == book.KindBackCover,
	}
	for i, text := range page.Paragraphs {
		p := paragraphData{Text: escapeXML(text)}
		if page.Kind == book.KindIntro && i == 0 && doc.AuthorLine() != "" {
			p.Class = "byline"
		}
		data.Paragraphs = append(data.Paragraphs, p)
	}

	f, err := zw.Create(contentDir + "/" + page.ID + ".xhtml")
	if err != nil {
		return err
	}
	return pageTmpl.Execute(f, data)
}

type navEntry struct {
	ID    string
	Title string
	Order int
}

func tocEntries(doc *book.Document) []navEntry {
	var entries []navEntry
	for i, page := range doc.TOC() {
		entries = append(entries, navEntry{
			ID:    page.ID,
			Title: escapeXML(page.Title),
			Order: i + 1,
		})
	}
	return entries
}

func (w *Writer) addNav(zw *zip.Writer, doc *book.Document) error {
	f, err := zw.Create(contentDir + "/nav.xhtml")
	if err != nil {
		return err
	}
	return navTmpl.Execute(f, struct {
		Title    string
		Language string
		Entries  []navEntry
	}{
		Title:    escapeXML(doc.Meta.Title),
		Language: doc.Meta.Language,
		Entries:  tocEntries(doc),
	})
}

func (w *Writer) addNCX(zw *zip.Writer, doc *book.Document, identifier string) error {
	f, err := zw.Create(contentDir + "/toc.ncx")
	if err != nil {
		return err
	}
	return ncxTmpl.Execute(f, struct {
		Title      string
		Identifier string
		Entries    []navEntry
	}{
		Title:      escapeXML(doc.Meta.Title),
		Identifier: identifier,
		Entries:    tocEntries(doc),
	})
}

type manifestPage struct {
	ID string
}

func (w *Writer) addPackage(zw *zip.Writer, doc *book.Document, identifier, modified string) error {
	var pages []manifestPage
	for _, page := range doc.Pages() {
		pages = append(pages, manifestPage{ID: page.ID})
	}

	f, err := zw.Create(contentDir + "/package.opf")
	if err != nil {
		return err
	}
	return packageTmpl.Execute(f, struct {
		Title      string
		Author     string
		Language   string
		Identifier string
		Modified   string
		HasCover   bool
		Pages      []manifestPage
	}{
		Title:      escapeXML(doc.Meta.Title),
		Author:     escapeXML(doc.Meta.Author),
		Language:   doc.Meta.Language,
		Identifier: identifier,
		Modified:   modified,
		HasCover:   len(doc.Cover) > 0,
		Pages:      pages,
	})
}
