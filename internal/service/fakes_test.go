package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/qrshare/internal/blobstore"
	"github.com/bigkaa/qrshare/internal/domain/model"
	"github.com/bigkaa/qrshare/internal/repository"
)

// fakeTextRepo — in-memory реализация TextShareRepository для тестов.
type fakeTextRepo struct {
	records    map[string]*model.TextShare
	insertErr  error
	insertCnt  int
	getByIDCnt int
}

func newFakeTextRepo() *fakeTextRepo {
	return &fakeTextRepo{records: map[string]*model.TextShare{}}
}

func (f *fakeTextRepo) Insert(_ context.Context, share *model.TextShare) error {
	f.insertCnt++
	if f.insertErr != nil {
		return f.insertErr
	}
	share.ID = uuid.NewString()
	share.CreatedAt = time.Now().UTC()
	stored := *share
	f.records[share.ID] = &stored
	return nil
}

func (f *fakeTextRepo) GetByID(_ context.Context, id string) (*model.TextShare, error) {
	f.getByIDCnt++
	share, ok := f.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *share
	return &copied, nil
}

// fakeFileRepo — in-memory реализация FileShareRepository для тестов.
type fakeFileRepo struct {
	records   map[string]*model.FileShare
	insertErr error
	insertCnt int
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{records: map[string]*model.FileShare{}}
}

func (f *fakeFileRepo) Insert(_ context.Context, share *model.FileShare) error {
	f.insertCnt++
	if f.insertErr != nil {
		return f.insertErr
	}
	share.ID = uuid.NewString()
	share.CreatedAt = time.Now().UTC()
	stored := *share
	f.records[share.ID] = &stored
	return nil
}

func (f *fakeFileRepo) GetByID(_ context.Context, id string) (*model.FileShare, error) {
	share, ok := f.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *share
	return &copied, nil
}

// fakeBlobStore — in-memory реализация BlobStore для тестов.
type fakeBlobStore struct {
	blobs  map[string][]byte
	putErr error
	putCnt int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(_ context.Context, key, _ string, r io.Reader) (*blobstore.BlobInfo, error) {
	f.putCnt++
	if f.putErr != nil {
		return nil, f.putErr
	}
	if _, ok := f.blobs[key]; ok {
		return nil, blobstore.ErrExists
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.blobs[key] = data
	return &blobstore.BlobInfo{
		Key:       key,
		Size:      int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeBlobStore) Open(_ context.Context, key string) (io.ReadCloser, *blobstore.BlobInfo, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, nil, blobstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), &blobstore.BlobInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeBlobStore) Stat(_ context.Context, key string) (*blobstore.BlobInfo, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return &blobstore.BlobInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeBlobStore) PublicURL(key string) string {
	return "http://blob.local/uploads/" + key
}

// errInsertFailed — типовая ошибка вставки для тестов.
var errInsertFailed = errors.New("вставка не удалась")
