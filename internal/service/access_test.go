package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/qrshare/internal/repository"
)

func newTestAccessService(texts *fakeTextRepo, files *fakeFileRepo, cache *CacheService) *AccessService {
	return NewAccessService(texts, files, cache, slog.Default())
}

// TestResolveText проверяет состояния доступа для защищённой
// и незащищённой текстовой записи.
func TestResolveText(t *testing.T) {
	texts := newFakeTextRepo()
	shareSvc := newTestShareService(texts, newFakeFileRepo(), newFakeBlobStore())
	accessSvc := newTestAccessService(texts, newFakeFileRepo(), nil)

	open, err := shareSvc.CreateTextShare(context.Background(), "открытый текст", "")
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}
	gated, err := shareSvc.CreateTextShare(context.Background(), "закрытый текст", "secret")
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	access, err := accessSvc.ResolveText(context.Background(), open.ID)
	if err != nil {
		t.Fatalf("ошибка разрешения: %v", err)
	}
	if access.State != StateUnlocked {
		t.Error("незащищённая запись должна быть Unlocked")
	}
	if access.Share.Content != "открытый текст" {
		t.Errorf("Content = %q", access.Share.Content)
	}

	access, err = accessSvc.ResolveText(context.Background(), gated.ID)
	if err != nil {
		t.Fatalf("ошибка разрешения: %v", err)
	}
	if access.State != StateGated {
		t.Error("защищённая запись должна быть Gated")
	}
}

// TestResolveText_Errors проверяет ошибки разрешения доступа.
func TestResolveText_Errors(t *testing.T) {
	accessSvc := newTestAccessService(newFakeTextRepo(), newFakeFileRepo(), nil)

	_, err := accessSvc.ResolveText(context.Background(), "")
	if !errors.Is(err, ErrMissingID) {
		t.Errorf("пустой id: ожидался ErrMissingID, получено %v", err)
	}

	_, err = accessSvc.ResolveText(context.Background(), "   ")
	if !errors.Is(err, ErrMissingID) {
		t.Errorf("id из пробелов: ожидался ErrMissingID, получено %v", err)
	}

	// Некорректный UUID трактуется как отсутствующая запись
	_, err = accessSvc.ResolveText(context.Background(), "not-a-uuid")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("некорректный UUID: ожидался ErrNotFound, получено %v", err)
	}

	_, err = accessSvc.ResolveText(context.Background(), uuid.NewString())
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("отсутствующая запись: ожидался ErrNotFound, получено %v", err)
	}
}

// TestUnlockText проверяет переход Gated → Unlocked при верном пароле.
func TestUnlockText(t *testing.T) {
	texts := newFakeTextRepo()
	shareSvc := newTestShareService(texts, newFakeFileRepo(), newFakeBlobStore())
	accessSvc := newTestAccessService(texts, newFakeFileRepo(), nil)

	created, err := shareSvc.CreateTextShare(context.Background(), "тайна", "secret")
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	// Неверный пароль — запись остаётся закрытой
	_, err = accessSvc.UnlockText(context.Background(), created.ID, "wrong")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("ожидался ErrWrongPassword, получено: %v", err)
	}

	// Пустой пароль отклоняется отдельно
	_, err = accessSvc.UnlockText(context.Background(), created.ID, "   ")
	if !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("ожидался ErrEmptyPassword, получено: %v", err)
	}

	// Повтор после неверного допустим — верный пароль открывает запись
	share, err := accessSvc.UnlockText(context.Background(), created.ID, "secret")
	if err != nil {
		t.Fatalf("ошибка разблокировки: %v", err)
	}
	if share.Content != "тайна" {
		t.Errorf("Content = %q, ожидалась тайна", share.Content)
	}
}

// TestUnlockText_TrimmedPassword проверяет, что пароль сравнивается
// после обрезки пробелов с обеих сторон.
func TestUnlockText_TrimmedPassword(t *testing.T) {
	texts := newFakeTextRepo()
	shareSvc := newTestShareService(texts, newFakeFileRepo(), newFakeBlobStore())
	accessSvc := newTestAccessService(texts, newFakeFileRepo(), nil)

	created, err := shareSvc.CreateTextShare(context.Background(), "текст", "secret")
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	share, err := accessSvc.UnlockText(context.Background(), created.ID, "  secret  ")
	if err != nil {
		t.Fatalf("пароль с пробелами должен подходить: %v", err)
	}
	if share == nil {
		t.Fatal("запись не возвращена")
	}
}

// TestUnlockText_Unprotected проверяет, что незащищённая запись
// открывается без пароля.
func TestUnlockText_Unprotected(t *testing.T) {
	texts := newFakeTextRepo()
	shareSvc := newTestShareService(texts, newFakeFileRepo(), newFakeBlobStore())
	accessSvc := newTestAccessService(texts, newFakeFileRepo(), nil)

	created, err := shareSvc.CreateTextShare(context.Background(), "открытый", "")
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	share, err := accessSvc.UnlockText(context.Background(), created.ID, "")
	if err != nil {
		t.Fatalf("ошибка разблокировки: %v", err)
	}
	if share.Content != "открытый" {
		t.Errorf("Content = %q", share.Content)
	}
}

// TestResolveFile проверяет разрешение доступа к файловой записи.
func TestResolveFile(t *testing.T) {
	files := newFakeFileRepo()
	shareSvc := newTestShareService(newFakeTextRepo(), files, newFakeBlobStore())
	accessSvc := newTestAccessService(newFakeTextRepo(), files, nil)

	created, err := shareSvc.CreateFileShare(context.Background(), FileUpload{
		Name:        "doc.pdf",
		Size:        100,
		ContentType: "application/pdf",
		Reader:      strings.NewReader("данные"),
	}, "secret")
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	access, err := accessSvc.ResolveFile(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("ошибка разрешения: %v", err)
	}
	if access.State != StateGated {
		t.Error("защищённый файл должен быть Gated")
	}
	if access.Share.FileName != "doc.pdf" {
		t.Errorf("FileName = %q", access.Share.FileName)
	}

	share, err := accessSvc.UnlockFile(context.Background(), created.ID, "secret")
	if err != nil {
		t.Fatalf("ошибка разблокировки: %v", err)
	}
	if share.FileName != "doc.pdf" {
		t.Errorf("FileName = %q", share.FileName)
	}

	_, err = accessSvc.UnlockFile(context.Background(), created.ID, "wrong")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("ожидался ErrWrongPassword, получено: %v", err)
	}
}

// TestResolveText_Cache проверяет, что повторное чтение идёт из кэша.
func TestResolveText_Cache(t *testing.T) {
	texts := newFakeTextRepo()
	cache := NewCacheService(16, time.Minute)
	shareSvc := newTestShareService(texts, newFakeFileRepo(), newFakeBlobStore())
	accessSvc := newTestAccessService(texts, newFakeFileRepo(), cache)

	created, err := shareSvc.CreateTextShare(context.Background(), "кэшируемый", "")
	if err != nil {
		t.Fatalf("ошибка создания: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := accessSvc.ResolveText(context.Background(), created.ID); err != nil {
			t.Fatalf("чтение %d: %v", i, err)
		}
	}
	if texts.getByIDCnt != 1 {
		t.Errorf("getByIDCnt = %d, ожидалось одно обращение к БД", texts.getByIDCnt)
	}
}
