// share.go — workflow создания записей шаринга.
//
// Текст: валидация → опциональный отпечаток пароля → вставка записи →
// view-ссылка. Файл: валидация → загрузка в blob → вставка записи →
// view-ссылка; ошибка вставки при уже загруженном blob не фатальна —
// возвращается деградированный результат с сырым публичным адресом.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/qrshare/internal/blobstore"
	"github.com/bigkaa/qrshare/internal/domain/model"
	"github.com/bigkaa/qrshare/internal/repository"
)

// Ошибки workflow создания.
var (
	// ErrEmptyContent — текст сообщения пуст или состоит из пробелов.
	ErrEmptyContent = errors.New("текст сообщения пуст")
	// ErrUploadFailed — blob-хранилище не приняло файл.
	ErrUploadFailed = errors.New("ошибка загрузки файла в хранилище")
)

// Prometheus-метрики создания записей.
var sharesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "qs_shares_created_total",
		Help: "Количество созданных записей шаринга по виду и исходу.",
	},
	[]string{"kind", "outcome"},
)

// Предел длины превью текста в результате создания.
const previewLimit = 50

// FileUpload — кандидат на загрузку файла.
type FileUpload struct {
	// Name — оригинальное имя файла
	Name string
	// Size — размер файла в байтах (из multipart-заголовка)
	Size int64
	// ContentType — MIME-тип файла (может быть пустым)
	ContentType string
	// Reader — поток данных файла
	Reader io.Reader
}

// ShareResult — результат создания записи.
type ShareResult struct {
	// ID — UUID записи (пустой в деградированном результате)
	ID string
	// ViewURL — ссылка для просмотра (кодируется в QR)
	ViewURL string
	// DisplayName — имя файла или превью текста
	DisplayName string
	// Degraded — true, если запись не создана, но blob доступен
	// по сырому публичному адресу (гейт пароля в этом случае невозможен)
	Degraded bool
}

// ShareService — workflow создания записей шаринга.
type ShareService struct {
	texts     repository.TextShareRepository
	files     repository.FileShareRepository
	blobs     blobstore.BlobStore
	publicURL string
	logger    *slog.Logger
}

// NewShareService создаёт workflow создания записей.
// publicURL — публичный базовый URL сервиса (origin view-ссылок).
func NewShareService(
	texts repository.TextShareRepository,
	files repository.FileShareRepository,
	blobs blobstore.BlobStore,
	publicURL string,
	logger *slog.Logger,
) *ShareService {
	return &ShareService{
		texts:     texts,
		files:     files,
		blobs:     blobs,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger.With(slog.String("component", "share_service")),
	}
}

// CreateTextShare создаёт текстовую запись.
// Пустой (после trim) текст отклоняется локально без обращения к БД.
// Содержимое сохраняется как введено, без trim.
func (s *ShareService) CreateTextShare(ctx context.Context, content, password string) (*ShareResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	share := &model.TextShare{Content: content}
	if strings.TrimSpace(password) != "" {
		hash := Fingerprint(password)
		share.PasswordHash = &hash
	}

	if err := s.texts.Insert(ctx, share); err != nil {
		sharesCreatedTotal.WithLabelValues("text", "error").Inc()
		return nil, fmt.Errorf("ошибка сохранения сообщения: %w", err)
	}

	sharesCreatedTotal.WithLabelValues("text", "success").Inc()
	s.logger.Info("Текстовое сообщение создано",
		slog.String("id", share.ID),
		slog.Int("content_len", len(share.Content)),
		slog.Bool("protected", share.Protected()),
	)

	return &ShareResult{
		ID:          share.ID,
		ViewURL:     s.TextViewURL(share.ID),
		DisplayName: textPreview(content),
	}, nil
}

// CreateFileShare загружает файл и создаёт файловую запись.
//
// Поток:
//  1. Валидация размера и типа (до любого I/O)
//  2. Загрузка в blob под ключом {uuid}/{имя} без перезаписи
//  3. Вставка записи в БД
//
// Ошибка на шаге 2 фатальна (запись не создаётся). Ошибка на шаге 3 —
// нет: blob уже durable, возвращается результат с его сырым адресом.
func (s *ShareService) CreateFileShare(ctx context.Context, upload FileUpload, password string) (*ShareResult, error) {
	if vErr := ValidateFile(upload.Size, upload.ContentType); vErr != nil {
		sharesCreatedTotal.WithLabelValues("file", "rejected").Inc()
		return nil, vErr
	}

	contentType := NormalizeContentType(upload.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := uuid.New().String() + "/" + upload.Name
	info, err := s.blobs.Put(ctx, key, contentType, upload.Reader)
	if err != nil {
		sharesCreatedTotal.WithLabelValues("file", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	publicURL := s.blobs.PublicURL(key)

	share := &model.FileShare{
		FileName:  upload.Name,
		FilePath:  key,
		FileSize:  info.Size,
		FileType:  contentType,
		PublicURL: publicURL,
	}
	if strings.TrimSpace(password) != "" {
		hash := Fingerprint(password)
		share.PasswordHash = &hash
	}

	if err := s.files.Insert(ctx, share); err != nil {
		// Blob уже сохранён — отдаём деградированный результат
		// с сырым адресом вместо полной ошибки. Гейт пароля в этой
		// ветке невозможен: записи с отпечатком не существует.
		sharesCreatedTotal.WithLabelValues("file", "degraded").Inc()
		s.logger.Error("Ошибка вставки файловой записи, возвращается сырой адрес blob",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return &ShareResult{
			ViewURL:     publicURL,
			DisplayName: upload.Name,
			Degraded:    true,
		}, nil
	}

	sharesCreatedTotal.WithLabelValues("file", "success").Inc()
	s.logger.Info("Файл загружен",
		slog.String("id", share.ID),
		slog.String("filename", share.FileName),
		slog.Int64("size", share.FileSize),
		slog.String("content_type", share.FileType),
		slog.Bool("protected", share.Protected()),
	)

	return &ShareResult{
		ID:          share.ID,
		ViewURL:     s.FileViewURL(share.ID),
		DisplayName: upload.Name,
	}, nil
}

// TextViewURL строит view-ссылку текстовой записи (кодируется в QR).
func (s *ShareService) TextViewURL(id string) string {
	return s.publicURL + "/view?id=" + id
}

// FileViewURL строит view-ссылку файловой записи.
func (s *ShareService) FileViewURL(id string) string {
	return s.publicURL + "/view-file?id=" + id
}

// textPreview обрезает текст до 50 символов с многоточием.
func textPreview(content string) string {
	runes := []rune(content)
	if len(runes) > previewLimit {
		return string(runes[:previewLimit]) + "..."
	}
	return content
}
