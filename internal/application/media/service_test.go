package media

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) FindByID(ctx context.Context, id string) (*store.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Store), args.Error(1)
}

func (m *MockStoreRepository) FindAll(ctx context.Context) ([]store.Store, error) {
	args := m.Called(ctx)
	return args.Get(0).([]store.Store), args.Error(1)
}

func (m *MockStoreRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStoreRepository) Save(ctx context.Context, st *store.Store) error {
	return m.Called(ctx, st).Error(0)
}

type memoryStorage struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStorage) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStorage) PublicURL(key string) string {
	return "https://cdn.japabox.com.br/" + key
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newMediaService(t *testing.T, maxSize int64) (*Service, *memoryStorage) {
	t.Helper()
	repo := new(MockStoreRepository)
	repo.On("FindByID", mock.Anything, "1").Return(&store.Store{ID: "1"}, nil)
	repo.On("FindByID", mock.Anything, "9").Return(nil, shared.ErrNotFound)
	storage := newMemoryStorage()
	return NewService(repo, storage, maxSize), storage
}

func TestService_UploadImage(t *testing.T) {
	ctx := context.Background()
	svc, storage := newMediaService(t, 0)

	res, err := svc.UploadImage(ctx, "1", KindBanner, bytes.NewReader(pngHeader), int64(len(pngHeader)))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^stores/1/banner/[0-9a-f-]{36}\.png$`), res.Key)
	assert.Equal(t, "https://cdn.japabox.com.br/"+res.Key, res.URL)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, pngHeader, storage.objects[res.Key])
	assert.Equal(t, "image/png", storage.types[res.Key])
}

func TestService_UploadImageRejects(t *testing.T) {
	ctx := context.Background()

	t.Run("not an image", func(t *testing.T) {
		svc, _ := newMediaService(t, 0)
		_, err := svc.UploadImage(ctx, "1", KindProduct, strings.NewReader("<html></html>"), 13)
		assert.ErrorIs(t, err, ErrUnsupportedImage)
	})

	t.Run("unknown kind", func(t *testing.T) {
		svc, _ := newMediaService(t, 0)
		_, err := svc.UploadImage(ctx, "1", Kind("avatar"), bytes.NewReader(pngHeader), 16)
		assert.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("declared size too large", func(t *testing.T) {
		svc, _ := newMediaService(t, 0)
		_, err := svc.UploadImage(ctx, "1", KindLogo, bytes.NewReader(pngHeader), DefaultMaxSize+1)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "FILE_TOO_LARGE", de.Code)
		assert.Equal(t, "A imagem deve ter no máximo 5 MB", de.Message)
	})

	t.Run("stream longer than declared", func(t *testing.T) {
		svc, _ := newMediaService(t, 8)
		_, err := svc.UploadImage(ctx, "1", KindLogo, bytes.NewReader(pngHeader), 4)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "FILE_TOO_LARGE", de.Code)
	})

	t.Run("unknown store", func(t *testing.T) {
		svc, _ := newMediaService(t, 0)
		_, err := svc.UploadImage(ctx, "9", KindIcon, bytes.NewReader(pngHeader), 16)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("storage disabled", func(t *testing.T) {
		svc := NewService(new(MockStoreRepository), nil, 0)
		_, err := svc.UploadImage(ctx, "1", KindIcon, bytes.NewReader(pngHeader), 16)
		assert.ErrorIs(t, err, ErrStorageDisabled)
	})
}
