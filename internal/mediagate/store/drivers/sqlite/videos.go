package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/domain"
)

type videosRepo struct {
	q querier
}

func (r *videosRepo) CreateVideo(ctx context.Context, v domain.Video) error {
	created := v.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	playlist := v.MasterPlaylist
	if playlist == "" {
		playlist = "output.m3u8"
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO videos (id, short_id, title, description, owner_id, master_playlist,
		                     duration_seconds, adaptive, enable_downloads, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.ShortID, v.Title, v.Description, v.OwnerID, playlist,
		v.DurationSeconds, v.Adaptive, v.EnableDownloads, created,
	)
	return mapConstraint(err)
}

func (r *videosRepo) GetVideo(ctx context.Context, id string) (domain.Video, error) {
	var v domain.Video
	err := r.q.QueryRowContext(ctx,
		`SELECT id, short_id, title, description, owner_id, master_playlist,
		        duration_seconds, adaptive, enable_downloads, created_at
		 FROM videos WHERE id = ? OR short_id = ?`, id, id,
	).Scan(&v.ID, &v.ShortID, &v.Title, &v.Description, &v.OwnerID, &v.MasterPlaylist,
		&v.DurationSeconds, &v.Adaptive, &v.EnableDownloads, &v.CreatedAt)
	if err != nil {
		return domain.Video{}, mapNotFound(err)
	}
	return v, nil
}
