package workflow

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"podbook/internal/feed"
	"podbook/internal/fileutil"
	"podbook/internal/logging"
	"podbook/internal/queue"
	"podbook/internal/services"
)

// processAll walks the selected episodes in order. The next episode's
// audio fetch is started before the current transcription so the two
// overlap; transcription itself stays strictly sequential.
func (m *Manager) processAll(ctx context.Context, store *queue.Store, audioDir string, selected []feed.Episode, summary *Summary) {
	var next *prefetchSlot
	for i, ep := range selected {
		current := next
		next = nil
		if i+1 < len(selected) {
			next = m.maybePrefetch(ctx, store, audioDir, selected[i+1])
		}

		if err := m.processEpisode(ctx, store, audioDir, ep, current, summary); err != nil {
			m.logger.Warn("episode failed", logging.String("episode", ep.Title), logging.Error(err))
			summary.Failed++
		}
	}
}

// processEpisode runs one episode through fetch, transcribe, and cleanup,
// persisting each state transition.
func (m *Manager) processEpisode(ctx context.Context, store *queue.Store, audioDir string, ep feed.Episode, pre *prefetchSlot, summary *Summary) error {
	item, err := store.Upsert(ctx, ep.Key(), ep.Title, ep.Published, ep.AudioURL)
	if err != nil {
		return services.Wrap(services.ErrFetch, "episode", "record", ep.Title, err)
	}

	if item.Status == queue.StatusChaptered && item.Transcript != "" {
		m.logger.Info("episode already transcribed", logging.String("episode", ep.Title))
		summary.Reused++
		return nil
	}

	if ep.AudioURL == "" {
		item.Status = queue.StatusSkipped
		item.ErrorMessage = "no audio enclosure"
		if err := store.Update(ctx, item); err != nil {
			return services.Wrap(services.ErrFetch, "episode", "record skip", ep.Title, err)
		}
		m.logger.Warn("episode has no audio, skipping", logging.String("episode", ep.Title))
		summary.Skipped++
		return nil
	}

	audioPath := audioFilePath(audioDir, ep)
	item.AudioPath = audioPath

	if err := m.ensureAudio(ctx, store, item, ep, audioPath, pre); err != nil {
		item.SetFailed(err.Error())
		_ = store.Update(ctx, item)
		return err
	}

	item.Status = queue.StatusTranscribing
	if err := store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrTranscription, "episode", "record transcribing", ep.Title, err)
	}
	m.logger.Info("transcribing episode", logging.String("episode", ep.Title), logging.String("audio", audioPath))

	text, err := m.transcriber.Transcribe(ctx, audioPath, audioDir)
	if err != nil {
		// The audio file stays on disk so a retry resumes at
		// transcription without another download.
		item.SetFailed(err.Error())
		_ = store.Update(ctx, item)
		return services.Wrap(services.ErrTranscription, "episode", "transcribe", ep.Title, err)
	}

	item.Transcript = text
	item.Status = queue.StatusChaptered
	item.ErrorMessage = ""
	if err := store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrTranscription, "episode", "record chapter", ep.Title, err)
	}

	if err := fileutil.RemoveIfExists(audioPath); err != nil {
		m.logger.Warn("could not remove audio file", logging.String("path", audioPath), logging.Error(err))
	}
	m.logger.Info("episode chaptered", logging.String("episode", ep.Title))
	return nil
}

// ensureAudio makes audioPath hold the episode audio, consuming a
// prefetch result when one is pending for this episode. An audio file
// already on disk is reused without a download.
func (m *Manager) ensureAudio(ctx context.Context, store *queue.Store, item *queue.Item, ep feed.Episode, audioPath string, pre *prefetchSlot) error {
	item.Status = queue.StatusFetching
	if err := store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrFetch, "episode", "record fetching", ep.Title, err)
	}

	if pre != nil && pre.key == ep.Key() {
		if err := pre.wait(); err != nil {
			return services.Wrap(services.ErrFetch, "episode", "fetch audio", ep.Title, err)
		}
	} else if !fileutil.Exists(audioPath) {
		if _, err := m.fetcher.Fetch(ctx, ep.AudioURL, audioPath); err != nil {
			return services.Wrap(services.ErrFetch, "episode", "fetch audio", ep.Title, err)
		}
	}

	item.Status = queue.StatusFetched
	if err := store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrFetch, "episode", "record fetched", ep.Title, err)
	}
	return nil
}

// audioFilePath derives the local audio name from the episode key plus
// the URL's extension. Keys are stable, so a resumed run finds the same
// file the interrupted one wrote.
func audioFilePath(audioDir string, ep feed.Episode) string {
	return filepath.Join(audioDir, ep.Key()+audioExt(ep.AudioURL))
}

func audioExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".mp3"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || len(ext) > 5 {
		return ".mp3"
	}
	return ext
}
