// Пакет model — доменные модели QR Share.
// Два вида записей: текстовые сообщения (text_shares) и файлы (file_shares).
// Записи создаются один раз и никогда не изменяются (write-once, read-many).
package model

import "time"

// TextShare — запись текстового сообщения в таблице text_shares.
type TextShare struct {
	// ID — UUID записи, генерируется базой данных при вставке
	ID string
	// Content — текст сообщения как введён (без trim, длина не ограничена)
	Content string
	// PasswordHash — SHA-256 hex-отпечаток пароля; nil = доступ без пароля
	PasswordHash *string
	// CreatedAt — время создания записи (задаёт БД)
	CreatedAt time.Time
}

// FileShare — запись загруженного файла в таблице file_shares.
type FileShare struct {
	// ID — UUID записи, генерируется базой данных при вставке
	ID string
	// FileName — оригинальное имя файла
	FileName string
	// FilePath — ключ файла в blob-хранилище ({uuid}/{имя файла})
	FilePath string
	// FileSize — размер файла в байтах (равен фактически записанным байтам)
	FileSize int64
	// FileType — MIME-тип файла (application/octet-stream если неизвестен)
	FileType string
	// PublicURL — публичный адрес файла в blob-хранилище
	PublicURL string
	// PasswordHash — SHA-256 hex-отпечаток пароля; nil = доступ без пароля
	PasswordHash *string
	// CreatedAt — время создания записи (задаёт БД)
	CreatedAt time.Time
}

// Protected сообщает, закрыта ли запись паролем.
func (t *TextShare) Protected() bool { return t.PasswordHash != nil }

// Protected сообщает, закрыта ли запись паролем.
func (f *FileShare) Protected() bool { return f.PasswordHash != nil }
