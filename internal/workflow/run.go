package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"podbook/internal/book"
	"podbook/internal/covers"
	"podbook/internal/feed"
	"podbook/internal/logging"
	"podbook/internal/queue"
	"podbook/internal/services"
	"podbook/internal/textutil"
)

const (
	lockFileName = "podbook.lock"
	dbFileName   = "podbook.db"
	audioDirName = "audio"
)

// Summary reports the outcome of one pipeline run.
type Summary struct {
	PodcastTitle string
	OutputPath   string
	Selected     int
	Chaptered    int
	Reused       int
	Skipped      int
	Failed       int
}

// Run executes the pipeline for one feed: parse, select [start, end) over
// the chronologically sorted episodes, process each selected episode, and
// write the assembled document. Per-episode failures are recorded and the
// run continues; only feed, lock, and assembly failures abort it.
func (m *Manager) Run(ctx context.Context, feedURL string, start, end int) (*Summary, error) {
	podcast, episodes, err := m.source.Parse(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	dirName := textutil.SanitizeTitle(podcast.Title)
	podcastDir := filepath.Join(m.cfg.Paths.LibraryDir, dirName)
	audioDir := filepath.Join(podcastDir, audioDirName)
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "prepare", podcastDir, err)
	}

	lock := flock.New(filepath.Join(podcastDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "lock", podcastDir, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "run", "lock",
			fmt.Sprintf("another run owns %s", podcastDir), nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	store, err := queue.Open(filepath.Join(podcastDir, dbFileName))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "open state store", podcastDir, err)
	}
	defer store.Close()

	if reset, err := store.ResetInFlight(ctx); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "reset state", podcastDir, err)
	} else if reset > 0 {
		m.logger.Info("reset interrupted episodes", logging.Int64("count", reset))
	}

	coverPath := filepath.Join(podcastDir, covers.FileName)
	group, groupCtx := errgroup.WithContext(ctx)
	if podcast.CoverURL != "" {
		group.Go(func() error {
			if err := m.covers.Ensure(groupCtx, podcast.CoverURL, coverPath); err != nil {
				// The cover is optional; the document is still valid without it.
				m.logger.Warn("cover fetch failed", logging.String("url", podcast.CoverURL), logging.Error(err))
			}
			return nil
		})
	}

	selected := feed.Select(feed.Chronological(episodes), start, end)
	m.logger.Info("episodes selected",
		logging.String("podcast", podcast.Title),
		logging.Int("feed_total", len(episodes)),
		logging.Int("selected", len(selected)))

	summary := &Summary{PodcastTitle: podcast.Title, Selected: len(selected)}
	m.processAll(ctx, store, audioDir, selected, summary)

	_ = group.Wait()

	chapters, err := m.collectChapters(ctx, store, selected)
	if err != nil {
		return nil, services.Wrap(services.ErrAssembly, "assemble", "collect chapters", "", err)
	}

	var cover []byte
	if data, err := os.ReadFile(coverPath); err == nil {
		cover = data
	}

	doc := book.Assemble(book.Metadata{
		Title:       podcast.Title,
		Author:      podcast.Author,
		Language:    m.cfg.Book.Language,
		IntroNote:   m.cfg.Book.IntroNote,
		ClosingNote: m.cfg.Book.ClosingNote,
	}, chapters, cover)

	outputPath := filepath.Join(podcastDir, doc.FileName())
	if err := m.writer.Write(doc, outputPath); err != nil {
		return nil, services.Wrap(services.ErrAssembly, "assemble", "write document", outputPath, err)
	}
	summary.OutputPath = outputPath
	summary.Chaptered = len(chapters)

	m.logger.Info("run complete",
		logging.String("podcast", podcast.Title),
		logging.Int("chapters", summary.Chaptered),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.String("output", outputPath))
	return summary, nil
}

// collectChapters reads back the processed episodes in selection order.
// Only chaptered episodes contribute; failed and skipped ones leave no
// placeholder.
func (m *Manager) collectChapters(ctx context.Context, store *queue.Store, selected []feed.Episode) ([]book.Chapter, error) {
	var chapters []book.Chapter
	for _, ep := range selected {
		item, err := store.GetByKey(ctx, ep.Key())
		if err != nil {
			return nil, err
		}
		if item == nil || item.Status != queue.StatusChaptered || item.Transcript == "" {
			continue
		}
		chapters = append(chapters, book.Chapter{
			Title:     item.Title,
			Text:      item.Transcript,
			Published: item.Published,
		})
	}
	return chapters, nil
}
