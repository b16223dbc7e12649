// Package epub writes a book document as an EPUB 3 container: a zip
// archive with a stored mimetype entry, an OPF package, EPUB 3 nav plus
// a legacy NCX, and one XHTML file per content page.
package epub
