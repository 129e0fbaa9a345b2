package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/domain/store"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// DefaultMaxSize is the upload limit when none is configured
const DefaultMaxSize int64 = 5 << 20

// Kind is what an image is used for; it becomes part of the object key
type Kind string

const (
	KindProduct Kind = "product"
	KindBanner  Kind = "banner"
	KindLogo    Kind = "logo"
	KindIcon    Kind = "icon"
)

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	switch k {
	case KindProduct, KindBanner, KindLogo, KindIcon:
		return true
	}
	return false
}

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Upload errors
var (
	ErrStorageDisabled  = shared.NewDomainError("STORAGE_DISABLED", "Image uploads are not enabled")
	ErrInvalidKind      = shared.NewDomainError("INVALID_KIND", "Kind must be product, banner, logo or icon")
	ErrUnsupportedImage = shared.NewDomainError("UNSUPPORTED_MEDIA_TYPE", "Envie uma imagem JPEG, PNG ou WebP")
	ErrEmptyFile        = shared.NewDomainError("EMPTY_FILE", "Arquivo vazio")
)

// ObjectStorage stores uploaded objects and tells their public URL
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// UploadResponse is a stored image
type UploadResponse struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Service uploads store images
type Service struct {
	storeRepo store.StoreRepository
	storage   ObjectStorage
	maxSize   int64
}

// NewService creates a new media Service. A nil storage disables uploads.
func NewService(storeRepo store.StoreRepository, storage ObjectStorage, maxSize int64) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Service{storeRepo: storeRepo, storage: storage, maxSize: maxSize}
}

// UploadImage stores an image under stores/{storeId}/{kind}/{uuid}.{ext}.
// The type is sniffed from the content; the client's claim is ignored.
func (s *Service) UploadImage(ctx context.Context, storeID string, kind Kind, body io.Reader, size int64) (*UploadResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if size > s.maxSize {
		return nil, s.tooLarge()
	}
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		return nil, err
	}

	// one byte past the limit tells an oversized stream apart
	data, err := io.ReadAll(io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.maxSize {
		return nil, s.tooLarge()
	}
	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return nil, ErrUnsupportedImage
	}

	key := fmt.Sprintf("stores/%s/%s/%s.%s", storeID, kind, uuid.NewString(), ext)
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Image uploaded",
		zap.String("store_id", storeID),
		zap.String("key", key),
		zap.Int("size", len(data)))

	return &UploadResponse{
		Key:         key,
		URL:         s.storage.PublicURL(key),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *Service) tooLarge() error {
	return shared.NewDomainError("FILE_TOO_LARGE",
		fmt.Sprintf("A imagem deve ter no máximo %d MB", s.maxSize>>20))
}
