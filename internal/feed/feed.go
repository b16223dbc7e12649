package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"podbook/internal/services"
)

// UnknownAuthor is the author recorded when the feed does not name one.
const UnknownAuthor = "Unknown Author"

// Podcast holds feed-level metadata. Created once from the parsed feed and
// never mutated afterward.
type Podcast struct {
	Title    string
	Author   string
	CoverURL string
}

// Episode describes one feed entry prior to any audio fetch. AudioURL is
// empty when the entry carries no audio enclosure; such episodes are retained
// here and skipped by the orchestrator.
type Episode struct {
	Title     string
	Published time.Time
	AudioURL  string
	GUID      string
}

// Key returns a stable, filesystem-safe identity for the episode: a digest of
// the feed GUID when present, otherwise of title plus publication time. Audio
// artifacts and state rows are keyed by this value, never by the audio URL's
// basename, so distinct episodes sharing a basename cannot collide.
func (e Episode) Key() string {
	identity := strings.TrimSpace(e.GUID)
	if identity == "" {
		identity = e.Title + "|" + e.Published.UTC().Format(time.RFC3339)
	}
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:8])
}

// Source parses RSS/Atom feeds into podcast metadata and episode descriptors.
type Source struct {
	parser *gofeed.Parser
}

// NewSource constructs a feed source. A nil client falls back to gofeed's
// default HTTP behavior.
func NewSource(client *http.Client, userAgent string) *Source {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}
	if strings.TrimSpace(userAgent) != "" {
		parser.UserAgent = userAgent
	}
	return &Source{parser: parser}
}

// Parse fetches and parses the feed at feedURL. A transport or parse failure
// is fatal for the run (services.ErrFeedUnreachable), as is a feed without a
// title (services.ErrInvalidFeed). Episodes are returned in the feed's native
// order; callers sort via Select.
func (s *Source) Parse(ctx context.Context, feedURL string) (Podcast, []Episode, error) {
	parsed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return Podcast{}, nil, services.Wrap(services.ErrFeedUnreachable, "feed", "parse", feedURL, err)
	}

	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		return Podcast{}, nil, services.Wrap(services.ErrInvalidFeed, "feed", "parse", "feed has no title", nil)
	}

	podcast := Podcast{
		Title:    title,
		Author:   feedAuthor(parsed),
		CoverURL: feedCoverURL(parsed),
	}

	episodes := make([]Episode, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		episodes = append(episodes, Episode{
			Title:     strings.TrimSpace(item.Title),
			Published: itemPublished(item),
			AudioURL:  audioEnclosure(item),
			GUID:      strings.TrimSpace(item.GUID),
		})
	}
	return podcast, episodes, nil
}

func feedAuthor(parsed *gofeed.Feed) string {
	for _, author := range parsed.Authors {
		if author != nil && strings.TrimSpace(author.Name) != "" {
			return strings.TrimSpace(author.Name)
		}
	}
	if parsed.ITunesExt != nil && strings.TrimSpace(parsed.ITunesExt.Author) != "" {
		return strings.TrimSpace(parsed.ITunesExt.Author)
	}
	return UnknownAuthor
}

func feedCoverURL(parsed *gofeed.Feed) string {
	if parsed.Image != nil && strings.TrimSpace(parsed.Image.URL) != "" {
		return strings.TrimSpace(parsed.Image.URL)
	}
	if parsed.ITunesExt != nil {
		return strings.TrimSpace(parsed.ITunesExt.Image)
	}
	return ""
}

func itemPublished(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

// audioEnclosure picks the episode's audio resource. Audio-typed enclosures
// win; otherwise the first enclosure with a URL is used, matching how podcast
// clients treat untyped enclosures.
func audioEnclosure(item *gofeed.Item) string {
	var fallback string
	for _, enc := range item.Enclosures {
		if enc == nil || strings.TrimSpace(enc.URL) == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enc.Type), "audio/") {
			return strings.TrimSpace(enc.URL)
		}
		if fallback == "" {
			fallback = strings.TrimSpace(enc.URL)
		}
	}
	return fallback
}
