// Пакет blobstore — хранилище загруженных файлов.
// Ключ файла имеет вид {uuid}/{оригинальное имя} — случайный префикс
// исключает коллизии одинаковых имён между разными загрузками.
// Перезапись существующего ключа запрещена (ErrExists).
package blobstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// Ошибки blob-хранилища.
var (
	// ErrExists — ключ уже занят (перезапись запрещена).
	ErrExists = errors.New("файл с таким ключом уже существует")
	// ErrNotFound — файл не найден.
	ErrNotFound = errors.New("файл не найден")
	// ErrInvalidKey — недопустимый ключ.
	ErrInvalidKey = errors.New("недопустимый ключ файла")
)

// BlobInfo — метаданные сохранённого файла, хранятся в sidecar-файле
// рядом с данными. Size — размер оригинальных (несжатых) данных.
type BlobInfo struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	Compressed  bool      `json:"compressed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BlobStore — контракт хранилища файлов.
type BlobStore interface {
	// Put сохраняет данные под ключом. Возвращает ErrExists,
	// если ключ уже занят.
	Put(ctx context.Context, key, contentType string, r io.Reader) (*BlobInfo, error)
	// Open открывает файл для чтения. Прозрачно распаковывает
	// сжатые данные. Вызывающий код обязан закрыть ReadCloser.
	Open(ctx context.Context, key string) (io.ReadCloser, *BlobInfo, error)
	// Stat возвращает метаданные файла без открытия данных.
	Stat(ctx context.Context, key string) (*BlobInfo, error)
	// PublicURL возвращает публичный адрес файла.
	PublicURL(key string) string
}
