package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/mercado-backend/internal/logging"
	"github.com/shinyyama/mercado-backend/internal/storage"
	"go.uber.org/zap"
)

type UploadHandler struct {
	uploader storage.Uploader
	log      *zap.Logger
}

// NewUploadHandler accepts a nil uploader; uploads then answer 503.
func NewUploadHandler(uploader storage.Uploader, log *zap.Logger) *UploadHandler {
	return &UploadHandler{uploader: uploader, log: log}
}

type UploadResponse struct {
	URL string `json:"url"`
}

func (h *UploadHandler) Upload(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	if h.uploader == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", storage.ErrNotConfigured.Error()))
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "missing file")
	}
	if fh.Size > storage.MaxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse("payload_too_large", "image exceeds 10MB"))
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "unreadable file")
	}
	defer f.Close()

	url, err := h.uploader.Upload(c.Request().Context(), fh.Header.Get("Content-Type"), f)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContent) {
			return badRequest(c, err.Error())
		}
		logging.FromContext(c.Request().Context(), h.log).Error("image upload failed", zap.Error(err))
		return err
	}
	return c.JSON(http.StatusCreated, UploadResponse{URL: url})
}
