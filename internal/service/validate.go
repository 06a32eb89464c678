// validate.go — политика приёма загружаемых файлов.
// Чистая функция без I/O: проверка выполняется до обращения
// к blob-хранилищу и базе данных.
package service

import (
	"fmt"
	"strings"

	apierrors "github.com/bigkaa/qrshare/internal/api/errors"
)

// MaxFileSize — максимальный размер загружаемого файла (50 MiB).
const MaxFileSize = 50 * 1024 * 1024

// allowedTypes — фиксированный allow-list MIME-типов.
// Пустой тип всегда допускается ("неизвестен — пропустить").
var allowedTypes = map[string]struct{}{
	"application/pdf":    {},
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"video/mp4":          {},
	"video/webm":         {},
	"audio/mpeg":         {},
	"audio/wav":          {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       {},
	"text/plain":      {},
	"application/zip": {},
}

// ValidationError — ошибка политики приёма файла.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidateFile проверяет кандидата на загрузку по размеру и MIME-типу.
// Возвращает nil при успехе или *ValidationError.
func ValidateFile(size int64, mimeType string) *ValidationError {
	if size > MaxFileSize {
		return &ValidationError{
			Code: apierrors.CodeFileTooLarge,
			Message: fmt.Sprintf(
				"Размер файла превышает лимит 50MB. Ваш файл: %.2fMB",
				float64(size)/1024/1024,
			),
		}
	}

	mimeType = NormalizeContentType(mimeType)
	if mimeType != "" {
		if _, ok := allowedTypes[mimeType]; !ok {
			return &ValidationError{
				Code:    apierrors.CodeUnsupportedType,
				Message: "Тип файла не поддерживается. Допустимы PDF, изображения, видео, аудио и документы.",
			}
		}
	}

	return nil
}

// NormalizeContentType убирает параметры MIME-типа (charset и т.д.)
// и краевые пробелы. Пустую строку возвращает как есть.
func NormalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}

// FormatFileSize форматирует размер файла для отображения:
// байты как есть, килобайты с одним знаком, мегабайты с двумя.
func FormatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
	}
}
