package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFeedUnreachable marks a feed that could not be fetched or parsed.
	ErrFeedUnreachable = errors.New("feed unreachable")
	// ErrInvalidFeed marks a feed missing required fields (e.g. title).
	ErrInvalidFeed = errors.New("invalid feed")
	// ErrFetch marks a failed media download.
	ErrFetch = errors.New("fetch error")
	// ErrTranscription marks a failed episode transcription.
	ErrTranscription = errors.New("transcription error")
	// ErrAssembly marks a failure while building or writing the ebook.
	ErrAssembly = errors.New("assembly error")
	// ErrConfiguration marks unusable runtime configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFetch
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error should abort the whole run. Feed,
// configuration, and assembly failures are fatal; fetch and transcription
// failures are recovered per episode.
func Fatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrFeedUnreachable),
		errors.Is(err, ErrInvalidFeed),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrAssembly):
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
