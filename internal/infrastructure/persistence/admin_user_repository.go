package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/identity"
	"gorm.io/gorm"
)

// GormAdminUserRepository implements AdminUserRepository using GORM
type GormAdminUserRepository struct {
	db *gorm.DB
}

// NewGormAdminUserRepository creates a new GormAdminUserRepository
func NewGormAdminUserRepository(db *gorm.DB) *GormAdminUserRepository {
	return &GormAdminUserRepository{db: db}
}

// FindByID finds an admin by ID
func (r *GormAdminUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.AdminUser, error) {
	var u identity.AdminUser
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// FindByUsername finds an admin by username
func (r *GormAdminUserRepository) FindByUsername(ctx context.Context, username string) (*identity.AdminUser, error) {
	var u identity.AdminUser
	if err := r.db.WithContext(ctx).
		First(&u, "username = ?", strings.ToLower(strings.TrimSpace(username))).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Count counts all admins
func (r *GormAdminUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&identity.AdminUser{}).Count(&n).Error
	return n, err
}

// Save creates or updates an admin
func (r *GormAdminUserRepository) Save(ctx context.Context, u *identity.AdminUser) error {
	return r.db.WithContext(ctx).Save(u).Error
}
