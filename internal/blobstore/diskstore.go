// diskstore.go — дисковая реализация BlobStore.
// Паттерн записи: temp файл → запись → fsync → atomic rename.
// Метаданные хранятся в sidecar-файле {key}.meta (JSON).
// Опционально данные сжимаются zstd на диске ({key}.zst) и
// прозрачно распаковываются при чтении.
package blobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Максимальная длина ключа (префикс-UUID + имя файла).
const maxKeyLength = 512

// Суффиксы служебных файлов хранилища.
const (
	metaSuffix = ".meta"
	zstSuffix  = ".zst"
	tmpSuffix  = ".tmp"
)

// DiskStore — хранилище файлов на локальном диске.
type DiskStore struct {
	// dataDir — корневая директория хранения (QS_BLOB_DIR)
	dataDir string
	// baseURL — публичный базовый URL сервиса (QS_PUBLIC_URL)
	baseURL string
	// compress — zstd-сжатие данных на диске (QS_BLOB_COMPRESS)
	compress bool
}

// NewDiskStore создаёт дисковое хранилище. Проверяет и создаёт
// директорию данных, если она не существует.
func NewDiskStore(dataDir, baseURL string, compress bool) (*DiskStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	return &DiskStore{
		dataDir:  dataDir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		compress: compress,
	}, nil
}

// Put сохраняет данные под ключом. Перезапись запрещена: если ключ
// уже занят — ErrExists, данные не трогаются.
func (s *DiskStore) Put(_ context.Context, key, contentType string, r io.Reader) (*BlobInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	metaPath := filepath.Join(s.dataDir, key+metaSuffix)
	if _, err := os.Stat(metaPath); err == nil {
		return nil, ErrExists
	}

	dataPath := filepath.Join(s.dataDir, key)
	if s.compress {
		dataPath += zstSuffix
	}

	if err := os.MkdirAll(filepath.Dir(dataPath), 0o750); err != nil {
		return nil, fmt.Errorf("ошибка создания директории: %w", err)
	}

	tmpPath := dataPath + tmpSuffix
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	// Считаем оригинальные байты до сжатия
	var size int64
	var writeErr error
	if s.compress {
		enc, encErr := zstd.NewWriter(f)
		if encErr != nil {
			f.Close()
			os.Remove(tmpPath)
			return nil, fmt.Errorf("ошибка инициализации zstd: %w", encErr)
		}
		size, writeErr = io.Copy(enc, r)
		if closeErr := enc.Close(); writeErr == nil {
			writeErr = closeErr
		}
	} else {
		size, writeErr = io.Copy(f, r)
	}
	if writeErr != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", writeErr)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, dataPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	info := &BlobInfo{
		Key:         key,
		Size:        size,
		ContentType: contentType,
		Compressed:  s.compress,
		CreatedAt:   time.Now().UTC(),
	}

	if err := writeMeta(metaPath, info); err != nil {
		os.Remove(dataPath)
		return nil, err
	}

	return info, nil
}

// Open открывает файл для чтения с прозрачной распаковкой zstd.
func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, *BlobInfo, error) {
	info, err := s.Stat(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	dataPath := filepath.Join(s.dataDir, key)
	if info.Compressed {
		dataPath += zstSuffix
	}

	f, err := os.Open(dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("ошибка открытия файла %s: %w", key, err)
	}

	if !info.Compressed {
		return f, info, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("ошибка инициализации zstd-распаковки: %w", err)
	}
	return &zstdReadCloser{dec: dec, file: f}, info, nil
}

// Stat возвращает метаданные файла из sidecar или ErrNotFound.
func (s *DiskStore) Stat(_ context.Context, key string) (*BlobInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	metaPath := filepath.Join(s.dataDir, key+metaSuffix)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения метаданных %s: %w", key, err)
	}

	info := &BlobInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("ошибка разбора метаданных %s: %w", key, err)
	}
	return info, nil
}

// PublicURL возвращает публичный адрес файла: {base}/uploads/{key},
// сегменты ключа экранируются для URL.
func (s *DiskStore) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/uploads/" + strings.Join(segments, "/")
}

// CheckReady проверяет доступность директории хранения на запись.
// Используется readiness probe.
func (s *DiskStore) CheckReady() (status, message string) {
	probe := filepath.Join(s.dataDir, ".health"+tmpSuffix)
	if err := os.WriteFile(probe, []byte("ok"), 0o640); err != nil {
		return "fail", fmt.Sprintf("директория хранения недоступна на запись: %v", err)
	}
	_ = os.Remove(probe)
	return "ok", ""
}

// writeMeta записывает sidecar-файл метаданных.
func writeMeta(path string, info *BlobInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("ошибка записи метаданных: %w", err)
	}
	return nil
}

// zstdReadCloser закрывает и декодер, и файл под ним.
type zstdReadCloser struct {
	dec  *zstd.Decoder
	file *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.file.Close()
}

// validateKey проверяет ключ файла: запрещены пустые ключи, абсолютные
// пути, path traversal, null-байты и служебные суффиксы хранилища.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("пустой ключ: %w", ErrInvalidKey)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("ключ длиннее %d символов: %w", maxKeyLength, ErrInvalidKey)
	}
	if filepath.IsAbs(key) {
		return fmt.Errorf("абсолютный путь запрещён: %w", ErrInvalidKey)
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("path traversal запрещён: %w", ErrInvalidKey)
	}
	if strings.Contains(key, "\x00") {
		return fmt.Errorf("null-байты запрещены: %w", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("ключ не может начинаться или заканчиваться слэшем: %w", ErrInvalidKey)
	}
	if strings.Contains(key, "//") {
		return fmt.Errorf("двойные слэши запрещены: %w", ErrInvalidKey)
	}
	if strings.HasSuffix(key, metaSuffix) || strings.HasSuffix(key, zstSuffix) || strings.HasSuffix(key, tmpSuffix) {
		return fmt.Errorf("служебный суффикс запрещён: %w", ErrInvalidKey)
	}
	return nil
}
