// shares.go — JSON API создания, чтения и разблокировки записей шаринга.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/qrshare/internal/api/errors"
	"github.com/bigkaa/qrshare/internal/repository"
	"github.com/bigkaa/qrshare/internal/service"
)

// maxMultipartMemory — порог буферизации multipart-формы в памяти,
// остальное уходит во временные файлы.
const maxMultipartMemory = 10 << 20

// createTextRequest — тело POST /api/v1/shares/text.
type createTextRequest struct {
	Content  string `json:"content"`
	Password string `json:"password,omitempty"`
}

// createShareResponse — ответ создания записи.
type createShareResponse struct {
	ID          string `json:"id,omitempty"`
	ViewURL     string `json:"view_url"`
	DisplayName string `json:"display_name"`
	Degraded    bool   `json:"degraded,omitempty"`
}

// textShareResponse — ответ GET /api/v1/shares/text/{id}.
// Content присутствует только для незащищённой записи.
type textShareResponse struct {
	ID        string    `json:"id"`
	Protected bool      `json:"protected"`
	Content   *string   `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// fileShareResponse — ответ GET /api/v1/shares/file/{id}.
// Метаданные файла и публичный адрес скрыты, пока запись защищена.
type fileShareResponse struct {
	ID        string    `json:"id"`
	Protected bool      `json:"protected"`
	FileName  string    `json:"file_name,omitempty"`
	FileSize  int64     `json:"file_size,omitempty"`
	FileType  string    `json:"file_type,omitempty"`
	PublicURL string    `json:"public_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// unlockRequest — тело POST /api/v1/shares/{kind}/{id}/unlock.
type unlockRequest struct {
	Password string `json:"password"`
}

// CreateTextShare — POST /api/v1/shares/text.
func (h *APIHandler) CreateTextShare(w http.ResponseWriter, r *http.Request) {
	var req createTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON")
		return
	}

	result, err := h.shares.CreateTextShare(r.Context(), req.Content, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmptyContent) {
			apierrors.ValidationError(w, "Текст сообщения пуст")
			return
		}
		h.logger.Error("Ошибка создания текстовой записи", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка при создании записи")
		return
	}

	writeJSON(w, http.StatusCreated, createShareResponse{
		ID:          result.ID,
		ViewURL:     result.ViewURL,
		DisplayName: result.DisplayName,
	})
}

// CreateFileShare — POST /api/v1/shares/file.
// Принимает multipart-форму: file — содержимое, password — опциональный пароль.
func (h *APIHandler) CreateFileShare(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		apierrors.ValidationError(w, "Некорректная multipart-форма")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле file отсутствует в форме")
		return
	}
	defer file.Close()

	upload := service.FileUpload{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}

	result, err := h.shares.CreateFileShare(r.Context(), upload, r.FormValue("password"))
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			switch vErr.Code {
			case apierrors.CodeFileTooLarge:
				apierrors.FileTooLarge(w, vErr.Message)
			case apierrors.CodeUnsupportedType:
				apierrors.UnsupportedType(w, vErr.Message)
			default:
				apierrors.ValidationError(w, vErr.Message)
			}
		case errors.Is(err, service.ErrUploadFailed):
			h.logger.Error("Ошибка загрузки файла в хранилище",
				slog.String("filename", header.Filename),
				slog.String("error", err.Error()),
			)
			apierrors.UploadError(w, "Не удалось сохранить файл в хранилище")
		default:
			h.logger.Error("Ошибка создания файловой записи", slog.String("error", err.Error()))
			apierrors.InternalError(w, "Внутренняя ошибка при создании записи")
		}
		return
	}

	writeJSON(w, http.StatusCreated, createShareResponse{
		ID:          result.ID,
		ViewURL:     result.ViewURL,
		DisplayName: result.DisplayName,
		Degraded:    result.Degraded,
	})
}

// GetTextShare — GET /api/v1/shares/text/{shareID}.
func (h *APIHandler) GetTextShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "shareID")

	access, err := h.access.ResolveText(r.Context(), id)
	if err != nil {
		h.writeResolveError(w, "text", id, err)
		return
	}

	resp := textShareResponse{
		ID:        access.Share.ID,
		Protected: access.Share.Protected(),
		CreatedAt: access.Share.CreatedAt,
	}
	if access.State == service.StateUnlocked {
		resp.Content = &access.Share.Content
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetFileShare — GET /api/v1/shares/file/{shareID}.
func (h *APIHandler) GetFileShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "shareID")

	access, err := h.access.ResolveFile(r.Context(), id)
	if err != nil {
		h.writeResolveError(w, "file", id, err)
		return
	}

	resp := fileShareResponse{
		ID:        access.Share.ID,
		Protected: access.Share.Protected(),
		CreatedAt: access.Share.CreatedAt,
	}
	if access.State == service.StateUnlocked {
		resp.FileName = access.Share.FileName
		resp.FileSize = access.Share.FileSize
		resp.FileType = access.Share.FileType
		resp.PublicURL = access.Share.PublicURL
	}
	writeJSON(w, http.StatusOK, resp)
}

// UnlockTextShare — POST /api/v1/shares/text/{shareID}/unlock.
func (h *APIHandler) UnlockTextShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "shareID")

	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON")
		return
	}

	share, err := h.access.UnlockText(r.Context(), id, req.Password)
	if err != nil {
		h.writeUnlockError(w, "text", id, err)
		return
	}

	writeJSON(w, http.StatusOK, textShareResponse{
		ID:        share.ID,
		Protected: share.Protected(),
		Content:   &share.Content,
		CreatedAt: share.CreatedAt,
	})
}

// UnlockFileShare — POST /api/v1/shares/file/{shareID}/unlock.
func (h *APIHandler) UnlockFileShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "shareID")

	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON")
		return
	}

	share, err := h.access.UnlockFile(r.Context(), id, req.Password)
	if err != nil {
		h.writeUnlockError(w, "file", id, err)
		return
	}

	writeJSON(w, http.StatusOK, fileShareResponse{
		ID:        share.ID,
		Protected: share.Protected(),
		FileName:  share.FileName,
		FileSize:  share.FileSize,
		FileType:  share.FileType,
		PublicURL: share.PublicURL,
		CreatedAt: share.CreatedAt,
	})
}

// writeResolveError транслирует ошибки разрешения доступа в API-ответ.
func (h *APIHandler) writeResolveError(w http.ResponseWriter, kind, id string, err error) {
	switch {
	case errors.Is(err, service.ErrMissingID):
		apierrors.ValidationError(w, "Идентификатор записи не указан")
	case errors.Is(err, repository.ErrNotFound):
		apierrors.NotFound(w, "Запись не найдена")
	default:
		h.logger.Error("Ошибка чтения записи",
			slog.String("kind", kind),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при чтении записи")
	}
}

// writeUnlockError транслирует ошибки разблокировки в API-ответ.
func (h *APIHandler) writeUnlockError(w http.ResponseWriter, kind, id string, err error) {
	switch {
	case errors.Is(err, service.ErrWrongPassword):
		apierrors.WrongPassword(w, "Неверный пароль")
	case errors.Is(err, service.ErrEmptyPassword):
		apierrors.ValidationError(w, "Пароль не указан")
	default:
		h.writeResolveError(w, kind, id, err)
	}
}
