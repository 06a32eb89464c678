package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/qrshare/internal/domain/model"
)

// TextShareRepository — доступ к таблице text_shares.
type TextShareRepository interface {
	// Insert создаёт запись и заполняет ID и CreatedAt из БД.
	Insert(ctx context.Context, share *model.TextShare) error
	// GetByID возвращает запись по UUID или ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.TextShare, error)
}

// textShareRepo — реализация TextShareRepository через pgx.
type textShareRepo struct {
	db DBTX
}

// NewTextShareRepository создаёт репозиторий текстовых сообщений.
func NewTextShareRepository(db DBTX) TextShareRepository {
	return &textShareRepo{db: db}
}

func (r *textShareRepo) Insert(ctx context.Context, share *model.TextShare) error {
	query := `
		INSERT INTO text_shares (content, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, share.Content, share.PasswordHash).
		Scan(&share.ID, &share.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка вставки текстового сообщения: %w", err)
	}
	return nil
}

func (r *textShareRepo) GetByID(ctx context.Context, id string) (*model.TextShare, error) {
	query := `
		SELECT id, content, password_hash, created_at
		FROM text_shares
		WHERE id = $1`

	share := &model.TextShare{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&share.ID, &share.Content, &share.PasswordHash, &share.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения текстового сообщения: %w", err)
	}
	return share, nil
}
