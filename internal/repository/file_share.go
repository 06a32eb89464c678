package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/qrshare/internal/domain/model"
)

// fileShareColumns — список столбцов таблицы file_shares для SELECT-запросов.
const fileShareColumns = `id, file_name, file_path, file_size, file_type,
	public_url, password_hash, created_at`

// FileShareRepository — доступ к таблице file_shares.
type FileShareRepository interface {
	// Insert создаёт запись и заполняет ID и CreatedAt из БД.
	Insert(ctx context.Context, share *model.FileShare) error
	// GetByID возвращает запись по UUID или ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.FileShare, error)
}

// fileShareRepo — реализация FileShareRepository через pgx.
type fileShareRepo struct {
	db DBTX
}

// NewFileShareRepository создаёт репозиторий файловых записей.
func NewFileShareRepository(db DBTX) FileShareRepository {
	return &fileShareRepo{db: db}
}

func (r *fileShareRepo) Insert(ctx context.Context, share *model.FileShare) error {
	query := `
		INSERT INTO file_shares (file_name, file_path, file_size, file_type,
			public_url, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		share.FileName, share.FilePath, share.FileSize, share.FileType,
		share.PublicURL, share.PasswordHash,
	).Scan(&share.ID, &share.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка вставки файловой записи: %w", err)
	}
	return nil
}

func (r *fileShareRepo) GetByID(ctx context.Context, id string) (*model.FileShare, error) {
	query := fmt.Sprintf(`SELECT %s FROM file_shares WHERE id = $1`, fileShareColumns)

	share := &model.FileShare{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&share.ID, &share.FileName, &share.FilePath, &share.FileSize,
		&share.FileType, &share.PublicURL, &share.PasswordHash, &share.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файловой записи: %w", err)
	}
	return share, nil
}
