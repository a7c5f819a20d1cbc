package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/service"
	"github.com/aussiebroadwan/mediagate/pkg/httpx"
	"github.com/aussiebroadwan/mediagate/pkg/mediasdk"
	"github.com/aussiebroadwan/mediagate/pkg/slogx"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
)

const deleteRetentionMessage = "Image metadata retained for up to 90 days for compliance."

type MediaHandler struct {
	MediaService *service.MediaService
	Errors       *svcerr.Registry
}

// HandleList returns a page of the caller's images.
//
//	@Summary		List images
//	@Description	Ten items per page, newest first. Each item carries a signed URL.
//	@Tags			Media
//	@Security		BearerAuth
//	@Produce		json
//	@Param			start	query		int	false	"Offset of the first item"
//	@Success		200		{object}	mediasdk.MediaListResponse
//	@Failure		401		{object}	svcerr.Response
//	@Failure		403		{object}	svcerr.Response	"Insufficient scope"
//	@Router			/v1/media [get].
func (h *MediaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	start := 0
	if raw := r.URL.Query().Get("start"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.Errors.Write(w, svcerr.InvalidRequest, http.StatusBadRequest, map[string]string{"start": raw})
			return
		}
		start = n
	}

	sub := httpx.SubjectFrom(r.Context())
	items, err := h.MediaService.List(r.Context(), sub, start)
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}

	resp := mediasdk.MediaListResponse{Success: true, Sub: sub, Images: make([]mediasdk.MediaItem, 0, len(items))}
	for _, it := range items {
		resp.Images = append(resp.Images, mediaItem(it))
	}
	if len(items) == service.PageSize {
		resp.Next = start + service.PageSize
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleUpload stores the request body as a new image.
//
//	@Summary		Upload an image
//	@Description	The raw body is the image. Identical bytes already in the account return the
//	@Description	existing item with status 200 and duplicate set.
//	@Tags			Media
//	@Security		BearerAuth
//	@Accept			image/jpeg,image/png,image/gif,image/webp
//	@Produce		json
//	@Success		201	{object}	mediasdk.MediaResponse
//	@Success		200	{object}	mediasdk.MediaResponse	"Duplicate"
//	@Failure		400	{object}	svcerr.Response			"Empty body"
//	@Failure		413	{object}	svcerr.Response			"Too large"
//	@Router			/v1/media [post].
func (h *MediaHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, dup, err := h.MediaService.Upload(ctx, httpx.SubjectFrom(ctx), r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}

	status := http.StatusCreated
	if dup {
		status = http.StatusOK
	} else {
		slogx.FromContext(ctx).Info("media uploaded", "media_id", item.ID, "size", item.Size)
	}
	httpx.WriteJSON(w, status, mediasdk.MediaResponse{Success: true, Image: mediaItem(item), Duplicate: dup})
}

// HandleGet returns one image with a fresh signed URL.
//
//	@Summary	Get an image
//	@Tags		Media
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Image id"
//	@Success	200	{object}	mediasdk.MediaResponse
//	@Failure	404	{object}	svcerr.Response
//	@Router		/v1/media/{id} [get].
func (h *MediaHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, err := h.MediaService.Get(ctx, httpx.SubjectFrom(ctx), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mediasdk.MediaResponse{Success: true, Image: mediaItem(item)})
}

// HandleDelete soft deletes an image.
//
//	@Summary		Delete an image
//	@Description	Requires both 'read:photos' and 'write:photos'.
//	@Tags			Media
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Image id"
//	@Success		200	{object}	mediasdk.DeleteResponse
//	@Failure		403	{object}	svcerr.Response	"Insufficient scope"
//	@Failure		404	{object}	svcerr.Response
//	@Router			/v1/media/{id} [delete].
func (h *MediaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := h.MediaService.Delete(ctx, httpx.SubjectFrom(ctx), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}

	slogx.FromContext(ctx).Info("media deleted", "media_id", m.ID)
	httpx.WriteJSON(w, http.StatusOK, mediasdk.DeleteResponse{
		Success: true,
		Operation: mediasdk.Operation{
			Message:       deleteRetentionMessage,
			OperationType: "delete",
		},
		Image: mediaItem(service.SignedMedia{Media: m}),
	})
}

func mediaItem(it service.SignedMedia) mediasdk.MediaItem {
	return mediasdk.MediaItem{
		ID:           it.ID,
		AccountHash:  it.AccountHash,
		ContentHash:  it.ContentHash,
		ContentType:  it.ContentType,
		Size:         it.Size,
		CreatedAt:    it.CreatedAt,
		UpdatedAt:    it.UpdatedAt,
		Deleted:      it.Deleted,
		URL:          it.URL,
		URLExpiresAt: it.URLExpiresAt,
	}
}
