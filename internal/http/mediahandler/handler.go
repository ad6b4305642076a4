package mediahandler

import (
	"errors"
	"net/http"
	"net/url"

	"songsyncgo/internal/media"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// form overhead allowed on top of the file size limit
const multipartSlack = 1 << 20

type Handler struct {
	lib     *media.Library
	fetcher media.Fetcher
	catalog media.Catalog // nil when disabled
}

func New(lib *media.Library, fetcher media.Fetcher, catalog media.Catalog) *Handler {
	return &Handler{lib: lib, fetcher: fetcher, catalog: catalog}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/search", h.search)
	r.POST("/download", h.download)
	r.POST("/upload", h.upload)
	r.GET("/list-downloads", h.listDownloads)
	r.GET("/media", h.listMedia)
}

// @Summary		Search for songs
// @Description	Searches YouTube through yt-dlp.
// @Tags			Media
// @Param			query	query		string	true	"Search text"	default(lofi beats)
// @Success		200		{object}	SearchResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/search [get]
func (h *Handler) search(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing search query"})
		return
	}
	results, err := h.fetcher.Search(c.Request.Context(), q.Query)
	if err != nil {
		zap.L().Error("media.search", zap.String("query", q.Query), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SearchResponse{Results: results})
}

// @Summary		Download audio
// @Description	Extracts mp3 audio from a video URL into the downloads directory.
// @Tags			Media
// @Param			body	body		DownloadBody	true	"Video URL"
// @Success		200		{object}	DownloadResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/download [post]
func (h *Handler) download(ginCtx *gin.Context) {
	var body DownloadBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: "URL is required"})
		return
	}

	zap.L().Info("media.download", zap.String("url", body.URL))
	name, err := h.fetcher.Download(ginCtx.Request.Context(), body.URL)
	if err != nil {
		zap.L().Error("media.download", zap.String("url", body.URL), zap.Error(err))
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}

	var size int64
	if info, err := h.lib.Stat(name); err == nil {
		size = info.Size
	}
	h.record(ginCtx, media.Entry{Kind: media.KindDownload, FileName: name, StoredName: name, Size: size})

	ginCtx.JSON(http.StatusOK, DownloadResponse{
		Success:  true,
		Message:  "Audio downloaded successfully",
		FileName: name,
		FileURL:  fileURL(ginCtx, "/downloads/", name),
	})
}

// @Summary		Upload audio
// @Description	Stores an audio file (mp3, wav, m4a, aac, ogg) under /uploads.
// @Tags			Media
// @Accept			multipart/form-data
// @Param			audio	formData	file	true	"Audio file"
// @Success		200		{object}	UploadResponse
// @Failure		400		{object}	UploadResponse
// @Failure		413		{object}	UploadResponse
// @Failure		500		{object}	UploadResponse
// @Router			/upload [post]
func (h *Handler) upload(ginCtx *gin.Context) {
	ginCtx.Request.Body = http.MaxBytesReader(ginCtx.Writer, ginCtx.Request.Body, h.lib.MaxBytes()+multipartSlack)

	fh, err := ginCtx.FormFile("audio")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			ginCtx.JSON(http.StatusRequestEntityTooLarge, UploadResponse{Message: media.ErrTooLarge.Error()})
			return
		}
		ginCtx.JSON(http.StatusBadRequest, UploadResponse{Message: "No file uploaded"})
		return
	}

	stored, err := h.lib.SaveUpload(fh)
	switch {
	case errors.Is(err, media.ErrNotAudio):
		ginCtx.JSON(http.StatusBadRequest, UploadResponse{Message: err.Error()})
		return
	case errors.Is(err, media.ErrTooLarge):
		ginCtx.JSON(http.StatusRequestEntityTooLarge, UploadResponse{Message: err.Error()})
		return
	case err != nil:
		zap.L().Error("media.upload", zap.String("file", fh.Filename), zap.Error(err))
		ginCtx.JSON(http.StatusInternalServerError, UploadResponse{Message: "Upload failed"})
		return
	}

	h.record(ginCtx, media.Entry{Kind: media.KindUpload, FileName: fh.Filename, StoredName: stored, Size: fh.Size})

	ginCtx.JSON(http.StatusOK, UploadResponse{
		Success:  true,
		Message:  "File uploaded successfully",
		FileName: fh.Filename,
		FileURL:  fileURL(ginCtx, "/uploads/", stored),
	})
}

// @Summary		List downloaded files
// @Tags			Media
// @Success		200	{object}	ListDownloadsResponse
// @Failure		500	{object}	ErrorResponse
// @Router			/list-downloads [get]
func (h *Handler) listDownloads(c *gin.Context) {
	list, err := h.lib.ListDownloads()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	files := make([]DownloadedFile, 0, len(list))
	for _, f := range list {
		files = append(files, DownloadedFile{
			File:     fileURL(c, "/downloads/", f.Name),
			FileName: f.Name,
			Size:     f.Size,
			Created:  f.Created,
		})
	}
	c.JSON(http.StatusOK, ListDownloadsResponse{Success: true, Count: len(files), Files: files})
}

// @Summary		List catalogued media
// @Description	Uploads and downloads recorded in the catalog, newest first.
// @Tags			Media
// @Param			kind	query		string	false	"Kind filter"			Enums(upload,download)
// @Param			limit	query		int		false	"Max results (0‑200)"	minimum(0)	maximum(200)	default(50)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		media.Entry
// @Failure		400		{object}	ErrorResponse
// @Failure		503		{object}	ErrorResponse
// @Router			/media [get]
func (h *Handler) listMedia(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "catalog disabled"})
		return
	}
	var q ListMediaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.catalog.List(c.Request.Context(), q.Kind, q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// record is best effort; a catalog failure never fails the request.
func (h *Handler) record(c *gin.Context, e media.Entry) {
	if h.catalog == nil {
		return
	}
	if _, err := h.catalog.Record(c.Request.Context(), e); err != nil {
		zap.L().Warn("media.catalog_record", zap.String("file", e.StoredName), zap.Error(err))
	}
}

func fileURL(c *gin.Context, prefix, name string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + c.Request.Host + prefix + url.PathEscape(name)
}
