package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/domain"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/metrics"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob"
	"github.com/aussiebroadwan/mediagate/pkg/signedurl"
)

// DefaultPlaybackTTL is how long a playback link stays valid when TTL is unset.
const DefaultPlaybackTTL = time.Hour

// PlaybackService hands out path-signed links to video playlists and serves
// the files behind them.
type PlaybackService struct {
	Store store.Store
	Blobs blob.Store

	// Signer uses the video trust domain's secret.
	Signer *signedurl.Signer
	TTL    time.Duration
}

// Frame is the window during which the playback URL is valid.
type Frame struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Playback is a video plus its signed master playlist URL and the window
// in which that URL is accepted.
type Playback struct {
	Video       domain.Video `json:"video"`
	PlaybackURL string       `json:"playback_url"`
	Frame       Frame        `json:"frame"`
}

// Describe returns a video with a path-signed link to its master playlist.
// Segments referenced relatively from the playlist inherit the credentials.
func (s *PlaybackService) Describe(ctx context.Context, id string) (Playback, error) {
	v, err := s.Store.Videos().GetVideo(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return Playback{}, ErrVideoNotFound
	}
	if err != nil {
		return Playback{}, err
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultPlaybackTTL
	}
	u, err := s.Signer.SignPath(v.ID, v.MasterPlaylist, ttl)
	if err != nil {
		return Playback{}, err
	}
	metrics.IncSignedURL("videos")

	return Playback{
		Video:       v,
		PlaybackURL: u.URL,
		Frame:       Frame{Start: u.ExpiresAt - int64(ttl/time.Second), End: u.ExpiresAt},
	}, nil
}

// OpenFile verifies "<exp>/<sig>/<videoID>/<file>" and opens the rendition
// file. The signature covers the video id, so any file of that video is
// reachable until the link expires.
func (s *PlaybackService) OpenFile(ctx context.Context, signedPath string) (io.ReadCloser, blob.Object, error) {
	p, file, err := signedurl.ParsePath(signedPath)
	if err != nil {
		metrics.ObserveSignedURLCheck("videos", "invalid")
		return nil, blob.Object{}, err
	}
	if err := s.Signer.VerifyParams(p); err != nil {
		metrics.ObserveSignedURLCheck("videos", signedURLResult(err))
		return nil, blob.Object{}, err
	}
	metrics.ObserveSignedURLCheck("videos", "ok")

	if file == "." || file == ".." || strings.ContainsAny(file, `/\`) {
		return nil, blob.Object{}, ErrInvalidFile
	}

	rc, obj, err := s.Blobs.Get(ctx, domain.VideoBlobKey(p.ObjectID, file))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, blob.Object{}, ErrVideoNotFound
	}
	return rc, obj, err
}
