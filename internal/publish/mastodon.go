package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-mastodon"
	"golang.org/x/oauth2"
)

// Mastodon posts statuses through go-mastodon with the v2 media API.
type Mastodon struct {
	client *mastodon.Client
	logger *slog.Logger
	newKey func() string
}

// NewMastodon authenticates every request with a static bearer token. base
// supplies the transport and timeout and may be nil.
func NewMastodon(server, accessToken string, base *http.Client, logger *slog.Logger) *Mastodon {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mastodon{
		logger: logger,
		newKey: func() string { return uuid.NewString() },
	}

	transport := http.DefaultTransport
	var timeout time.Duration
	if base != nil {
		if base.Transport != nil {
			transport = base.Transport
		}
		timeout = base.Timeout
	}

	// Config.AccessToken stays empty; the oauth2 transport replaces the
	// Authorization header go-mastodon sets from it.
	client := mastodon.NewClient(&mastodon.Config{Server: strings.TrimRight(server, "/")})
	client.Client = http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Base:   &idempotentStatuses{base: transport, newKey: func() string { return m.newKey() }},
		},
	}
	m.client = client
	return m
}

func (m *Mastodon) Name() string {
	return "mastodon"
}

func (m *Mastodon) Post(ctx context.Context, text string, image []byte, altText string) error {
	toot := &mastodon.Toot{Status: text}

	if len(image) > 0 {
		attachment, err := m.client.UploadMediaFromMedia(ctx, &mastodon.Media{
			File:        bytes.NewReader(image),
			Description: altText,
		})
		if err != nil {
			return fmt.Errorf("mastodon: uploading media: %w", err)
		}
		toot.MediaIDs = []mastodon.ID{attachment.ID}
	}

	status, err := m.client.PostStatus(ctx, toot)
	if err != nil {
		return fmt.Errorf("mastodon: posting status: %w", err)
	}
	m.logger.Debug("mastodon status created", "id", status.ID, "url", status.URL)
	return nil
}

// idempotentStatuses tags status creation with an Idempotency-Key so a
// retried request does not post twice.
type idempotentStatuses struct {
	base   http.RoundTripper
	newKey func() string
}

func (t *idempotentStatuses) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPost || !strings.HasSuffix(req.URL.Path, "/api/v1/statuses") {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("Idempotency-Key", t.newKey())
	return t.base.RoundTrip(req)
}
