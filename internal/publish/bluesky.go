package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
)

const DefaultBlueskyPDS = "https://bsky.social"

// Bluesky posts through the AT Protocol XRPC endpoints of a PDS, logging in
// with an app password on every post.
type Bluesky struct {
	pds      string
	handle   string
	password string
	client   *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

func NewBluesky(pds, handle, appPassword string, client *http.Client, logger *slog.Logger) *Bluesky {
	if pds == "" {
		pds = DefaultBlueskyPDS
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bluesky{
		pds:      strings.TrimRight(pds, "/"),
		handle:   handle,
		password: appPassword,
		client:   client,
		logger:   logger,
		now:      time.Now,
	}
}

func (b *Bluesky) Name() string {
	return "bluesky"
}

func (b *Bluesky) Post(ctx context.Context, text string, image []byte, altText string) error {
	xc := &xrpc.Client{Client: b.client, Host: b.pds}

	session, err := atproto.ServerCreateSession(ctx, xc, &atproto.ServerCreateSession_Input{
		Identifier: b.handle,
		Password:   b.password,
	})
	if err != nil {
		return fmt.Errorf("bluesky: creating session: %w", err)
	}
	xc.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}

	post := &bsky.FeedPost{
		Text:      text,
		CreatedAt: b.now().UTC().Format(time.RFC3339),
	}

	if len(image) > 0 {
		upload, err := atproto.RepoUploadBlob(ctx, xc, bytes.NewReader(image))
		if err != nil {
			return fmt.Errorf("bluesky: uploading image: %w", err)
		}
		post.Embed = &bsky.FeedPost_Embed{
			EmbedImages: &bsky.EmbedImages{
				Images: []*bsky.EmbedImages_Image{{Alt: altText, Image: upload.Blob}},
			},
		}
	}

	record, err := atproto.RepoCreateRecord(ctx, xc, &atproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.post",
		Repo:       session.Did,
		Record:     &lexutil.LexiconTypeDecoder{Val: post},
	})
	if err != nil {
		return fmt.Errorf("bluesky: creating record: %w", err)
	}
	b.logger.Debug("bluesky post created", "uri", record.Uri, "cid", record.Cid)
	return nil
}
