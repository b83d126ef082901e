// internal/repository/users.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prompteconomy/backend/internal/models"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *GormUserRepository) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &user, nil
}

func (r *GormUserRepository) ByWallet(ctx context.Context, address string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", strings.ToLower(address)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by wallet: %w", err)
	}
	return &user, nil
}

func (r *GormUserRepository) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// RotateNonce is a compare-and-swap: the UPDATE only matches while the stored
// nonce still equals the one the signature was checked against. Zero rows
// affected means another request consumed it first.
func (r *GormUserRepository) RotateNonce(ctx context.Context, id uuid.UUID, current, next string, loginAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND nonce = ?", id, current).
		Updates(map[string]interface{}{
			"nonce":         next,
			"last_login_at": loginAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("rotate nonce: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
