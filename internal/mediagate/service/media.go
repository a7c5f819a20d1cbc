package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/domain"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/metrics"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob"
	"github.com/aussiebroadwan/mediagate/pkg/cryptox"
	"github.com/aussiebroadwan/mediagate/pkg/signedurl"
	"github.com/aussiebroadwan/mediagate/pkg/slogx"
	"github.com/google/uuid"
)

const (
	PageSize = 10

	DefaultImageURLTTL    = 24 * time.Hour
	DefaultMaxUploadBytes = 25 << 20
)

// MediaService manages a user's photos. Every item handed back carries a
// signed URL so clients can fetch the bytes without a bearer token.
type MediaService struct {
	Store  store.Store
	Blobs  blob.Store
	Signer *signedurl.Signer

	URLTTL         time.Duration
	MaxUploadBytes int64
}

// SignedMedia is a media row plus its time-boxed link.
type SignedMedia struct {
	domain.Media
	URL          string `json:"url"`
	URLExpiresAt int64  `json:"url_expires_at"`
}

func (s *MediaService) urlTTL() time.Duration {
	if s.URLTTL > 0 {
		return s.URLTTL
	}
	return DefaultImageURLTTL
}

func (s *MediaService) maxUpload() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return DefaultMaxUploadBytes
}

func (s *MediaService) sign(m domain.Media) (SignedMedia, error) {
	u, err := s.Signer.SignResource(m.AccountHash+"/"+m.ID, m.ID, s.urlTTL())
	if err != nil {
		return SignedMedia{}, err
	}
	metrics.IncSignedURL("photos")
	return SignedMedia{Media: m, URL: u.URL, URLExpiresAt: u.ExpiresAt}, nil
}

// List returns one page of the subject's live media starting at offset.
func (s *MediaService) List(ctx context.Context, subject string, offset int) ([]SignedMedia, error) {
	if offset < 0 {
		offset = 0
	}
	items, err := s.Store.Media().ListMedia(ctx, subject, offset, PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	out := make([]SignedMedia, 0, len(items))
	for _, m := range items {
		sm, err := s.sign(m)
		if err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, nil
}

// Upload stores body for subject. When the same bytes already exist in the
// account the existing item is returned with duplicate set and nothing is
// written.
func (s *MediaService) Upload(ctx context.Context, subject, contentType string, body io.Reader) (item SignedMedia, duplicate bool, err error) {
	limit := s.maxUpload()

	var buf bytes.Buffer
	digest, err := cryptox.DigestReaderHex(io.TeeReader(io.LimitReader(body, limit+1), &buf))
	if err != nil {
		return SignedMedia{}, false, err
	}
	n := int64(buf.Len())
	if n == 0 {
		return SignedMedia{}, false, ErrEmptyUpload
	}
	if n > limit {
		return SignedMedia{}, false, ErrUploadTooLarge
	}

	acct := domain.AccountHash(subject)
	existing, err := s.Store.Media().GetMediaByContentHash(ctx, acct, digest)
	switch {
	case err == nil:
		sm, err := s.sign(existing)
		return sm, true, err
	case !errors.Is(err, store.ErrNotFound):
		return SignedMedia{}, false, fmt.Errorf("failed to check duplicate: %w", err)
	}

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(buf.Bytes())
	}

	m := domain.Media{
		ID:          uuid.NewString(),
		AccountID:   subject,
		AccountHash: acct,
		ContentHash: digest,
		ContentType: contentType,
		Size:        n,
		CreatedAt:   time.Now().UTC(),
	}

	err = s.Blobs.Put(ctx, blob.Object{
		Key:         m.BlobKey(),
		ContentType: m.ContentType,
		Size:        m.Size,
		SHA256:      m.ContentHash,
		Metadata:    map[string]string{"Source": "upload"},
	}, &buf)
	if err != nil {
		return SignedMedia{}, false, fmt.Errorf("failed to store blob: %w", err)
	}

	if err := s.Store.Media().CreateMedia(ctx, m); err != nil {
		// Do not leave an orphan object behind.
		if derr := s.Blobs.Delete(ctx, m.BlobKey()); derr != nil {
			slogx.FromContext(ctx).Warn("failed to remove orphan blob", "key", m.BlobKey(), "error", derr)
		}
		return SignedMedia{}, false, fmt.Errorf("failed to register media: %w", err)
	}

	sm, err := s.sign(m)
	return sm, false, err
}

// Get returns one item owned by subject.
func (s *MediaService) Get(ctx context.Context, subject, id string) (SignedMedia, error) {
	m, err := s.Store.Media().GetMedia(ctx, subject, id)
	if errors.Is(err, store.ErrNotFound) {
		return SignedMedia{}, ErrMediaNotFound
	}
	if err != nil {
		return SignedMedia{}, err
	}
	return s.sign(m)
}

// Delete soft deletes the row, then removes the bytes. A failed blob removal
// is logged and left for housekeeping; the item is already invisible.
func (s *MediaService) Delete(ctx context.Context, subject, id string) (domain.Media, error) {
	m, err := s.Store.Media().GetMedia(ctx, subject, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Media{}, ErrMediaNotFound
	}
	if err != nil {
		return domain.Media{}, err
	}

	if err := s.Store.Media().MarkMediaDeleted(ctx, subject, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Media{}, ErrMediaNotFound
		}
		return domain.Media{}, err
	}
	if err := s.Blobs.Delete(ctx, m.BlobKey()); err != nil {
		slogx.FromContext(ctx).Warn("failed to remove blob", "key", m.BlobKey(), "error", err)
	}

	now := time.Now().UTC()
	m.Deleted = true
	m.UpdatedAt = &now
	return m, nil
}

// Open serves a signed image link. No database lookup is made: the
// signature over the id and expiry is the whole authorization.
func (s *MediaService) Open(ctx context.Context, accountHash, id string, p signedurl.Params) (io.ReadCloser, blob.Object, error) {
	p.ObjectID = id
	if err := s.Signer.VerifyParams(p); err != nil {
		metrics.ObserveSignedURLCheck("photos", signedURLResult(err))
		return nil, blob.Object{}, err
	}
	metrics.ObserveSignedURLCheck("photos", "ok")

	rc, obj, err := s.Blobs.Get(ctx, domain.MediaBlobKey(accountHash, id))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, blob.Object{}, ErrMediaNotFound
	}
	return rc, obj, err
}

func signedURLResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, signedurl.ErrLinkExpired):
		return "expired"
	default:
		return "invalid"
	}
}
