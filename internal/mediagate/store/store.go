package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the metadata store. Drivers expose sub-repositories so a
// transaction can hand out the same repos bound to its own connection.
type Store interface {
	Users() Users
	Media() Media
	Videos() Videos

	ApplyMigrations() error

	// WithTx runs fn in a read/write transaction. fn returning an error
	// rolls back; nil commits. Nested transactions are not supported.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is the subset of Store valid inside a transaction.
type Tx interface {
	Users() Users
	Media() Media
	Videos() Videos
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used at login. Emails are matched case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser fails with ErrAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateTOTPSecret sets or clears (empty secret) the second factor.
	UpdateTOTPSecret(ctx context.Context, userID, secret string) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Media interface {
	CreateMedia(ctx context.Context, m domain.Media) error

	// GetMedia returns a live item owned by accountID.
	GetMedia(ctx context.Context, accountID, id string) (domain.Media, error)

	// GetMediaByContentHash finds a live item with the same bytes in the
	// same account, for de-duplication.
	GetMediaByContentHash(ctx context.Context, accountHash, contentHash string) (domain.Media, error)

	// ListMedia pages live items, newest first.
	ListMedia(ctx context.Context, accountID string, offset, limit int) ([]domain.Media, error)

	// MarkMediaDeleted soft deletes; ErrNotFound if nothing live matched.
	MarkMediaDeleted(ctx context.Context, accountID, id string) error

	// PurgeDeletedMedia drops rows soft deleted before the cutoff and
	// returns how many went.
	PurgeDeletedMedia(ctx context.Context, before time.Time) (int64, error)
}

type Videos interface {
	CreateVideo(ctx context.Context, v domain.Video) error
	GetVideo(ctx context.Context, id string) (domain.Video, error)
}
