package testsupport

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// FeedItem describes one episode entry in a generated RSS fixture.
type FeedItem struct {
	Title         string
	Published     time.Time
	AudioURL      string
	EnclosureType string
	GUID          string
}

// FeedSpec describes a generated RSS fixture document.
type FeedSpec struct {
	Title    string
	Author   string
	CoverURL string
	Items    []FeedItem
}

// RSSDocument renders a minimal RSS 2.0 document for the given spec.
func RSSDocument(spec FeedSpec) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">` + "\n")
	b.WriteString("<channel>\n")
	if spec.Title != "" {
		fmt.Fprintf(&b, "<title>%s</title>\n", spec.Title)
	}
	if spec.Author != "" {
		fmt.Fprintf(&b, "<itunes:author>%s</itunes:author>\n", spec.Author)
	}
	if spec.CoverURL != "" {
		fmt.Fprintf(&b, "<image><url>%s</url><title>%s</title><link>https://example.com</link></image>\n", spec.CoverURL, spec.Title)
	}
	for _, item := range spec.Items {
		b.WriteString("<item>\n")
		fmt.Fprintf(&b, "<title>%s</title>\n", item.Title)
		if !item.Published.IsZero() {
			fmt.Fprintf(&b, "<pubDate>%s</pubDate>\n", item.Published.UTC().Format(time.RFC1123Z))
		}
		if item.GUID != "" {
			fmt.Fprintf(&b, "<guid>%s</guid>\n", item.GUID)
		}
		if item.AudioURL != "" {
			encType := item.EnclosureType
			if encType == "" {
				encType = "audio/mpeg"
			}
			fmt.Fprintf(&b, `<enclosure url="%s" length="1024" type="%s"/>`+"\n", item.AudioURL, encType)
		}
		b.WriteString("</item>\n")
	}
	b.WriteString("</channel>\n</rss>\n")
	return b.String()
}

// NewFeedServer serves the given RSS document at every path and shuts the
// server down when the test finishes.
func NewFeedServer(t testing.TB, document string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(document))
	}))
	t.Cleanup(server.Close)
	return server
}
