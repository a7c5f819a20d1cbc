package domain

import "time"

// Video is an HLS rendition whose playlist and segments sit under
// VideoBlobPrefix(ID) in the object store.
type Video struct {
	ID              string    `json:"id"`
	ShortID         string    `json:"short_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	OwnerID         string    `json:"owner"`
	MasterPlaylist  string    `json:"master_playlist"`
	DurationSeconds int64     `json:"video_length"`
	Adaptive        bool      `json:"adaptive"`
	EnableDownloads bool      `json:"enable_downloads"`
	CreatedAt       time.Time `json:"created_at"`
}

// VideoBlobKey builds "outputs/<id>/<file>".
func VideoBlobKey(id, file string) string {
	return "outputs/" + id + "/" + file
}
