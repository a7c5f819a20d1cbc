package domain

import (
	"time"

	"github.com/aussiebroadwan/mediagate/pkg/cryptox"
)

// Media is an uploaded photo. Rows are soft deleted so the content hash
// history is kept.
type Media struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"-"`
	AccountHash string     `json:"account_uid_sha256"`
	ContentHash string     `json:"original_image_hash"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"original_size"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Deleted     bool       `json:"is_deleted"`
}

// BlobKey is where the bytes live in the object store.
func (m Media) BlobKey() string {
	return MediaBlobKey(m.AccountHash, m.ID)
}

// MediaBlobKey builds "usercontent/<account hash>/<id>".
func MediaBlobKey(accountHash, id string) string {
	return "usercontent/" + accountHash + "/" + id
}

// AccountHash is the public, non-reversible handle for a subject used in
// object keys and URLs.
func AccountHash(subject string) string {
	return cryptox.DigestHex([]byte(subject))
}
