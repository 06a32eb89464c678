// uploads.go — раздача загруженных blob по публичному адресу /uploads/{key}.
// Адрес публичный и без гейта: защита паролем распространяется на
// view-страницы и API, а не на само blob-хранилище.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/qrshare/internal/api/errors"
	"github.com/bigkaa/qrshare/internal/blobstore"
)

// ServeUpload — GET /uploads/*.
func (h *APIHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		apierrors.ValidationError(w, "Некорректный ключ файла")
		return
	}

	rc, info, err := h.blobs.Open(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrNotFound), errors.Is(err, blobstore.ErrInvalidKey):
			apierrors.NotFound(w, "Файл не найден")
		default:
			h.logger.Error("Ошибка чтения blob",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Внутренняя ошибка при чтении файла")
		}
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		// Заголовки уже отправлены, остаётся только залогировать
		h.logger.Error("Ошибка отдачи blob",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
