package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/domain"
)

type mediaRepo struct {
	q querier
}

const mediaColumns = `id, account_id, account_hash, content_hash, content_type, size, is_deleted, created_at, updated_at`

func scanMedia(row interface{ Scan(...any) error }) (domain.Media, error) {
	var (
		m       domain.Media
		updated sql.NullTime
	)
	err := row.Scan(&m.ID, &m.AccountID, &m.AccountHash, &m.ContentHash, &m.ContentType,
		&m.Size, &m.Deleted, &m.CreatedAt, &updated)
	if err != nil {
		return domain.Media{}, mapNotFound(err)
	}
	m.UpdatedAt = mapNullTimePtr(updated)
	return m, nil
}

func (r *mediaRepo) CreateMedia(ctx context.Context, m domain.Media) error {
	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO media (id, account_id, account_hash, content_hash, content_type, size, is_deleted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		m.ID, m.AccountID, m.AccountHash, m.ContentHash, m.ContentType, m.Size, created,
	)
	return mapConstraint(err)
}

func (r *mediaRepo) GetMedia(ctx context.Context, accountID, id string) (domain.Media, error) {
	return scanMedia(r.q.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = ? AND account_id = ? AND is_deleted = 0`,
		id, accountID))
}

func (r *mediaRepo) GetMediaByContentHash(ctx context.Context, accountHash, contentHash string) (domain.Media, error) {
	return scanMedia(r.q.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media
		 WHERE account_hash = ? AND content_hash = ? AND is_deleted = 0
		 ORDER BY created_at LIMIT 1`,
		accountHash, contentHash))
}

func (r *mediaRepo) ListMedia(ctx context.Context, accountID string, offset, limit int) ([]domain.Media, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+mediaColumns+` FROM media
		 WHERE account_id = ? AND is_deleted = 0
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Media, 0, limit)
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *mediaRepo) MarkMediaDeleted(ctx context.Context, accountID, id string) error {
	return requireAffected(r.q.ExecContext(ctx,
		`UPDATE media SET is_deleted = 1, updated_at = ? WHERE id = ? AND account_id = ? AND is_deleted = 0`,
		time.Now().UTC(), id, accountID,
	))
}

func (r *mediaRepo) PurgeDeletedMedia(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM media WHERE is_deleted = 1 AND updated_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
