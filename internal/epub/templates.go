package epub

import (
	"strings"
	"text/template"
)

// escapeXML covers the five XML predefined entities. Templates receive
// pre-escaped strings; text/template performs no escaping of its own.
var escapeXML = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
).Replace

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/package.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

const stylesCSS = `body {
  font-family: serif;
  line-height: 1.5;
  margin: 1em;
}
h1, h2 {
  text-align: center;
}
p.byline {
  text-align: center;
  font-style: italic;
}
img.cover {
  max-width: 100%;
  height: auto;
  display: block;
  margin: 0 auto;
}
`

var packageTmpl = template.Must(template.New("package").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="pub-id" xml:lang="{{.Language}}">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="pub-id">{{.Identifier}}</dc:identifier>
    <dc:title>{{.Title}}</dc:title>
    <dc:creator>{{.Author}}</dc:creator>
    <dc:language>{{.Language}}</dc:language>
    <meta property="dcterms:modified">{{.Modified}}</meta>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="css" href="styles.css" media-type="text/css"/>
{{- if .HasCover}}
    <item id="cover-image" href="cover.jpg" media-type="image/jpeg" properties="cover-image"/>
{{- end}}
{{- range .Pages}}
    <item id="{{.ID}}" href="{{.ID}}.xhtml" media-type="application/xhtml+xml"/>
{{- end}}
  </manifest>
  <spine toc="ncx">
    <itemref idref="nav"/>
{{- range .Pages}}
    <itemref idref="{{.ID}}"/>
{{- end}}
  </spine>
</package>
`))

var navTmpl = template.Must(template.New("nav").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="{{.Language}}">
<head>
  <title>{{.Title}}</title>
  <link rel="stylesheet" type="text/css" href="styles.css"/>
</head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>Table of Contents</h1>
    <ol>
{{- range .Entries}}
      <li><a href="{{.ID}}.xhtml">{{.Title}}</a></li>
{{- end}}
    </ol>
  </nav>
</body>
</html>
`))

var ncxTmpl = template.Must(template.New("ncx").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="{{.Identifier}}"/>
    <meta name="dtb:depth" content="1"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
  <docTitle><text>{{.Title}}</text></docTitle>
  <navMap>
{{- range $i, $e := .Entries}}
    <navPoint id="navpoint-{{$e.ID}}" playOrder="{{$e.Order}}">
      <navLabel><text>{{$e.Title}}</text></navLabel>
      <content src="{{$e.ID}}.xhtml"/>
    </navPoint>
{{- end}}
  </navMap>
</ncx>
`))

var pageTmpl = template.Must(template.New("page").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="{{.Language}}">
<head>
  <title>{{.Title}}</title>
  <link rel="stylesheet" type="text/css" href="styles.css"/>
</head>
<body>
{{- if .ShowHeading}}
  <h1>{{.Title}}</h1>
{{- end}}
{{- if .CoverImage}}
  <img class="cover" src="cover.jpg" alt="{{.Title}}"/>
{{- end}}
{{- range .Paragraphs}}
  <p{{if .Class}} class="{{.Class}}"{{end}}>{{.Text}}</p>
{{- end}}
</body>
</html>
`))
