package workflow

import (
	"context"

	"podbook/internal/feed"
	"podbook/internal/fileutil"
	"podbook/internal/queue"
)

// prefetchSlot holds one in-flight background download. There is at most
// one: the next episode's audio, fetched while the current episode is
// being transcribed.
type prefetchSlot struct {
	key  string
	done chan error
}

func (s *prefetchSlot) wait() error {
	return <-s.done
}

// maybePrefetch starts a background download for ep if it will need one:
// the episode has an audio URL, is not already transcribed, and its audio
// file is not already on disk. Returns nil when no download is needed.
func (m *Manager) maybePrefetch(ctx context.Context, store *queue.Store, audioDir string, ep feed.Episode) *prefetchSlot {
	if ep.AudioURL == "" {
		return nil
	}
	if item, err := store.GetByKey(ctx, ep.Key()); err == nil && item != nil {
		if item.Status == queue.StatusChaptered && item.Transcript != "" {
			return nil
		}
	}
	audioPath := audioFilePath(audioDir, ep)
	if fileutil.Exists(audioPath) {
		return nil
	}

	slot := &prefetchSlot{key: ep.Key(), done: make(chan error, 1)}
	go func() {
		_, err := m.fetcher.Fetch(ctx, ep.AudioURL, audioPath)
		slot.done <- err
	}()
	return slot
}
