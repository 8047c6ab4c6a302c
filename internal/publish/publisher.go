// Package publish posts a composed message and its image to social platforms.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNoPublishers is returned by Multi when nothing is configured.
var ErrNoPublishers = errors.New("no publishers configured")

// Publisher posts text with one image attachment. image may be empty, in
// which case the post is text only.
type Publisher interface {
	Name() string
	Post(ctx context.Context, text string, image []byte, altText string) error
}

// Multi posts to every publisher in order. A failure does not stop the
// remaining publishers; all failures are returned joined.
type Multi struct {
	publishers []Publisher
	logger     *slog.Logger
}

func NewMulti(logger *slog.Logger, publishers ...Publisher) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{publishers: publishers, logger: logger}
}

func (m *Multi) Name() string {
	names := make([]string, 0, len(m.publishers))
	for _, p := range m.publishers {
		names = append(names, p.Name())
	}
	return strings.Join(names, ",")
}

func (m *Multi) Post(ctx context.Context, text string, image []byte, altText string) error {
	if len(m.publishers) == 0 {
		return ErrNoPublishers
	}

	var errs []error
	for _, p := range m.publishers {
		if err := p.Post(ctx, text, image, altText); err != nil {
			m.logger.Error("post failed", "publisher", p.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		m.logger.Info("posted", "publisher", p.Name(), "image_bytes", len(image))
	}
	return errors.Join(errs...)
}
