package http

import (
	"net/http"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/service"
	"github.com/aussiebroadwan/mediagate/pkg/httpx"
	"github.com/aussiebroadwan/mediagate/pkg/mediasdk"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
)

type VideoHandler struct {
	PlaybackService *service.PlaybackService
	Errors          *svcerr.Registry
}

// ServeHTTP returns video metadata and a signed playback URL.
//
//	@Summary		Get a video
//	@Description	The playback URL embeds its signature in the path so relative segment
//	@Description	references in the playlist inherit it. Valid for the returned frame.
//	@Tags			Video
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Video id or short id"
//	@Success		200	{object}	mediasdk.PlaybackResponse
//	@Failure		403	{object}	svcerr.Response	"Insufficient scope"
//	@Failure		404	{object}	svcerr.Response
//	@Router			/v1/videos/{id} [get].
func (h *VideoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pb, err := h.PlaybackService.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}

	v := pb.Video
	httpx.WriteJSON(w, http.StatusOK, mediasdk.PlaybackResponse{
		Success: true,
		Video: mediasdk.VideoInfo{
			ID:              v.ID,
			ShortID:         v.ShortID,
			Title:           v.Title,
			Description:     v.Description,
			Owner:           v.OwnerID,
			MasterPlaylist:  v.MasterPlaylist,
			VideoLength:     v.DurationSeconds,
			Adaptive:        v.Adaptive,
			EnableDownloads: v.EnableDownloads,
			CreatedAt:       v.CreatedAt,
		},
		Access: mediasdk.PlaybackAccess{
			PlaybackURL: pb.PlaybackURL,
			Frame:       mediasdk.PlaybackFrame{Start: pb.Frame.Start, End: pb.Frame.End},
		},
	})
}
