// access.go — разрешение доступа к записям при просмотре.
//
// Состояния просмотра: запись не найдена / ошибка (ошибки Go),
// Gated (требуется пароль) и Unlocked (содержимое доступно).
// Gated → Unlocked при верном пароле; неверный пароль оставляет
// Gated и допускает повтор без ограничений — защита от перебора
// отсутствует намеренно (см. passwordgate.go).
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/qrshare/internal/domain/model"
	"github.com/bigkaa/qrshare/internal/repository"
)

// Ошибки разрешения доступа.
var (
	// ErrMissingID — идентификатор записи не указан.
	ErrMissingID = errors.New("идентификатор записи не указан")
	// ErrEmptyPassword — попытка разблокировки с пустым паролем.
	ErrEmptyPassword = errors.New("пароль не указан")
	// ErrWrongPassword — пароль не подошёл, запись остаётся закрытой.
	ErrWrongPassword = errors.New("неверный пароль")
)

// Prometheus-метрики попыток разблокировки.
var unlockAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "qs_unlock_attempts_total",
		Help: "Количество попыток разблокировки записей по виду и исходу.",
	},
	[]string{"kind", "outcome"},
)

// AccessState — состояние доступа к записи.
type AccessState int

const (
	// StateGated — запись закрыта паролем, содержимое недоступно.
	StateGated AccessState = iota
	// StateUnlocked — содержимое доступно.
	StateUnlocked
)

// TextAccess — результат разрешения доступа к текстовой записи.
type TextAccess struct {
	State AccessState
	Share *model.TextShare
}

// FileAccess — результат разрешения доступа к файловой записи.
type FileAccess struct {
	State AccessState
	Share *model.FileShare
}

// AccessService — разрешение доступа к записям при просмотре.
type AccessService struct {
	texts  repository.TextShareRepository
	files  repository.FileShareRepository
	cache  *CacheService
	logger *slog.Logger
}

// NewAccessService создаёт сервис разрешения доступа.
// cache может быть nil — тогда каждый запрос идёт в БД.
func NewAccessService(
	texts repository.TextShareRepository,
	files repository.FileShareRepository,
	cache *CacheService,
	logger *slog.Logger,
) *AccessService {
	return &AccessService{
		texts:  texts,
		files:  files,
		cache:  cache,
		logger: logger.With(slog.String("component", "access_service")),
	}
}

// ResolveText возвращает состояние доступа к текстовой записи.
// Пустой id → ErrMissingID; отсутствующая запись → repository.ErrNotFound.
func (a *AccessService) ResolveText(ctx context.Context, id string) (*TextAccess, error) {
	share, err := a.fetchText(ctx, id)
	if err != nil {
		return nil, err
	}

	state := StateUnlocked
	if share.Protected() {
		state = StateGated
	}
	return &TextAccess{State: state, Share: share}, nil
}

// ResolveFile возвращает состояние доступа к файловой записи.
func (a *AccessService) ResolveFile(ctx context.Context, id string) (*FileAccess, error) {
	share, err := a.fetchFile(ctx, id)
	if err != nil {
		return nil, err
	}

	state := StateUnlocked
	if share.Protected() {
		state = StateGated
	}
	return &FileAccess{State: state, Share: share}, nil
}

// UnlockText проверяет пароль и возвращает запись при успехе.
// Для незащищённой записи пароль не требуется.
// Пустой пароль отклоняется до сравнения отпечатков.
func (a *AccessService) UnlockText(ctx context.Context, id, password string) (*model.TextShare, error) {
	share, err := a.fetchText(ctx, id)
	if err != nil {
		return nil, err
	}
	if !share.Protected() {
		return share, nil
	}

	if strings.TrimSpace(password) == "" {
		return nil, ErrEmptyPassword
	}
	if !Matches(password, *share.PasswordHash) {
		unlockAttemptsTotal.WithLabelValues("text", "wrong_password").Inc()
		return nil, ErrWrongPassword
	}

	unlockAttemptsTotal.WithLabelValues("text", "success").Inc()
	return share, nil
}

// UnlockFile проверяет пароль и возвращает запись при успехе.
func (a *AccessService) UnlockFile(ctx context.Context, id, password string) (*model.FileShare, error) {
	share, err := a.fetchFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if !share.Protected() {
		return share, nil
	}

	if strings.TrimSpace(password) == "" {
		return nil, ErrEmptyPassword
	}
	if !Matches(password, *share.PasswordHash) {
		unlockAttemptsTotal.WithLabelValues("file", "wrong_password").Inc()
		return nil, ErrWrongPassword
	}

	unlockAttemptsTotal.WithLabelValues("file", "success").Inc()
	return share, nil
}

// fetchText возвращает текстовую запись через кэш или БД.
func (a *AccessService) fetchText(ctx context.Context, id string) (*model.TextShare, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}
	// Некорректный UUID не существует в таблице по определению
	if err := uuid.Validate(id); err != nil {
		return nil, repository.ErrNotFound
	}

	if a.cache != nil {
		if share, ok := a.cache.GetText(id); ok {
			return share, nil
		}
	}

	share, err := a.texts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		a.cache.SetText(id, share)
	}
	return share, nil
}

// fetchFile возвращает файловую запись через кэш или БД.
func (a *AccessService) fetchFile(ctx context.Context, id string) (*model.FileShare, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}
	if err := uuid.Validate(id); err != nil {
		return nil, repository.ErrNotFound
	}

	if a.cache != nil {
		if share, ok := a.cache.GetFile(id); ok {
			return share, nil
		}
	}

	share, err := a.files.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		a.cache.SetFile(id, share)
	}
	return share, nil
}
