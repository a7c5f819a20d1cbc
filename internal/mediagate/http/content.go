package http

import (
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/service"
	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob"
	"github.com/aussiebroadwan/mediagate/pkg/signedurl"
	"github.com/aussiebroadwan/mediagate/pkg/slogx"
	"github.com/aussiebroadwan/mediagate/pkg/svcerr"
)

// ContentHandler streams bytes behind signed links. These routes take no
// bearer token.
type ContentHandler struct {
	MediaService    *service.MediaService
	PlaybackService *service.PlaybackService
	Errors          *svcerr.Registry
}

// HandleImage serves /v1/images/{account}/{id}?hmac_token=..&token_exp=..
//
//	@Summary	Fetch a signed image
//	@Tags		Content
//	@Produce	image/jpeg,image/png,image/gif,image/webp
//	@Param		account		path	string	true	"Account hash"
//	@Param		id			path	string	true	"Image id"
//	@Param		hmac_token	query	string	true	"Signature"
//	@Param		token_exp	query	int		true	"Expiry, unix seconds"
//	@Success	200
//	@Failure	403	{object}	svcerr.Response	"Bad signature or expired link"
//	@Failure	404	{object}	svcerr.Response
//	@Router		/v1/images/{account}/{id} [get].
func (h *ContentHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := signedurl.ParseQuery(id, r.URL.Query())
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}

	rc, obj, err := h.MediaService.Open(r.Context(), r.PathValue("account"), id, p)
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}
	defer rc.Close()

	writeContent(w, r, rc, obj, p.ExpiresAt)
}

// HandleVideoFile serves a playlist or segment under a path-signed prefix.
//
//	@Summary	Fetch a signed video file
//	@Tags		Content
//	@Produce	application/vnd.apple.mpegurl,video/mp2t
//	@Param		exp		path	int		true	"Expiry, unix seconds"
//	@Param		sig		path	string	true	"Signature"
//	@Param		id		path	string	true	"Video id"
//	@Param		file	path	string	true	"Playlist or segment name"
//	@Success	200
//	@Failure	403	{object}	svcerr.Response	"Bad signature or expired link"
//	@Failure	404	{object}	svcerr.Response
//	@Router		/v1/videos/{exp}/{sig}/{id}/{file} [get].
func (h *ContentHandler) HandleVideoFile(w http.ResponseWriter, r *http.Request) {
	signed := strings.Join([]string{
		r.PathValue("exp"),
		r.PathValue("sig"),
		url.PathEscape(r.PathValue("id")),
		url.PathEscape(r.PathValue("file")),
	}, "/")

	rc, obj, err := h.PlaybackService.OpenFile(r.Context(), signed)
	if err != nil {
		writeError(w, r, h.Errors, err)
		return
	}
	defer rc.Close()

	exp, _ := strconv.ParseInt(r.PathValue("exp"), 10, 64)
	if obj.ContentType == "" || obj.ContentType == "application/octet-stream" {
		obj.ContentType = videoContentType(r.PathValue("file"))
	}
	writeContent(w, r, rc, obj, exp)
}

// writeContent lets private caches keep the bytes no longer than the link
// stays valid.
func writeContent(w http.ResponseWriter, r *http.Request, rc io.Reader, obj blob.Object, expiresAt int64) {
	h := w.Header()
	if obj.ContentType != "" {
		h.Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		h.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if obj.SHA256 != "" {
		h.Set("ETag", `"`+obj.SHA256+`"`)
	}
	h.Set("X-Content-Type-Options", "nosniff")

	maxAge := expiresAt - nowUnix()
	if maxAge < 0 {
		maxAge = 0
	}
	h.Set("Cache-Control", "private, max-age="+strconv.FormatInt(maxAge, 10))

	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		slogx.FromContext(r.Context()).Warn("content copy aborted", "key", obj.Key, "err", err)
	}
}

func videoContentType(file string) string {
	switch strings.ToLower(path.Ext(file)) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	case ".mp4", ".m4s":
		return "video/mp4"
	case ".vtt":
		return "text/vtt"
	default:
		return "application/octet-stream"
	}
}
