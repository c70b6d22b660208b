package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

// PictureOpener reads uploaded profile pictures.
type PictureOpener interface {
	Open(ctx context.Context, key string) (model.Object, error)
}

// Picture serves uploaded profile pictures.
type Picture struct {
	pictures PictureOpener
	logger   *logger.Logger
}

// NewPicture creates a new Picture handler.
func NewPicture(pictures PictureOpener, logger *logger.Logger) *Picture {
	return &Picture{pictures: pictures, logger: logger}
}

func (h *Picture) Get(w http.ResponseWriter, r *http.Request) {
	key := urlParam(r, "key")

	obj, err := h.pictures.Open(r.Context(), key)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("Picture handler: failed to open picture",
				"key", key,
				"error", err.Error())
		}
		handleError(w, err)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	// keys are never reused
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

	if _, err := io.Copy(w, obj); err != nil {
		h.logger.Warn("Picture handler: failed to write picture",
			"key", key,
			"error", err.Error())
	}
}
