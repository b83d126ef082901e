// internal/repository/purchases.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prompteconomy/backend/internal/database"
	"github.com/prompteconomy/backend/internal/models"
	"github.com/prompteconomy/backend/internal/utils"
)

type GormPurchaseRepository struct {
	db *gorm.DB
}

func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

func (r *GormPurchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}

func (r *GormPurchaseRepository) ByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).Preload("Prompt").First(&purchase, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get purchase by id: %w", err)
	}
	return &purchase, nil
}

func (r *GormPurchaseRepository) ByBuyerAndPrompt(ctx context.Context, buyerID, promptID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND prompt_id = ?", buyerID, promptID).
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get purchase by buyer and prompt: %w", err)
	}
	return &purchase, nil
}

// Settle flips the record to completed and bumps the prompt's purchase
// counter in one database transaction. The WHERE status = 'pending' guard is
// what makes concurrent verify calls produce exactly one transition and
// exactly one increment: only the statement that matched the pending row
// proceeds to touch the counter.
func (r *GormPurchaseRepository) Settle(ctx context.Context, id uuid.UUID, blockNumber uint64, grantedAt time.Time) (bool, error) {
	transitioned := false

	err := database.WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		result := tx.Model(&models.Purchase{}).
			Where("id = ? AND status = ?", id, models.PurchaseStatusPending).
			Updates(map[string]interface{}{
				"status":            models.PurchaseStatusCompleted,
				"verified":          true,
				"access_granted":    true,
				"access_granted_at": grantedAt,
				"block_number":      blockNumber,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		transitioned = true

		var promptID uuid.UUID
		if err := tx.Model(&models.Purchase{}).
			Select("prompt_id").
			Where("id = ?", id).
			Scan(&promptID).Error; err != nil {
			return err
		}

		return tx.Model(&models.Prompt{}).
			Where("id = ?", promptID).
			UpdateColumn("purchase_count", gorm.Expr("purchase_count + 1")).Error
	})
	if err != nil {
		return false, fmt.Errorf("settle purchase: %w", err)
	}
	return transitioned, nil
}

func (r *GormPurchaseRepository) Fail(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, models.PurchaseStatusPending).
		Update("status", models.PurchaseStatusFailed)
	if result.Error != nil {
		return false, fmt.Errorf("fail purchase: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// SetReview only matches rows that have not been rated yet, so a review can
// be recorded at most once per purchase.
func (r *GormPurchaseRepository) SetReview(ctx context.Context, id uuid.UUID, rating int, review string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND rating IS NULL", id).
		Updates(map[string]interface{}{
			"rating":      rating,
			"review":      review,
			"reviewed_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("set review: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *GormPurchaseRepository) HasAccess(ctx context.Context, buyerID, promptID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("buyer_id = ? AND prompt_id = ? AND status = ? AND access_granted = ?",
			buyerID, promptID, models.PurchaseStatusCompleted, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check access: %w", err)
	}
	return count > 0, nil
}

func (r *GormPurchaseRepository) ListCompletedByBuyer(ctx context.Context, buyerID uuid.UUID, params utils.PaginationParams) ([]models.Purchase, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("buyer_id = ? AND status = ?", buyerID, models.PurchaseStatusCompleted).
		Preload("Prompt")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count purchases: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at"})
	query = utils.ApplyPagination(query, params)

	var purchases []models.Purchase
	if err := query.Find(&purchases).Error; err != nil {
		return nil, 0, fmt.Errorf("list purchases by buyer: %w", err)
	}
	return purchases, total, nil
}

func (r *GormPurchaseRepository) ListCompletedByPrompt(ctx context.Context, promptID uuid.UUID, params utils.PaginationParams) ([]models.Purchase, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("prompt_id = ? AND status = ?", promptID, models.PurchaseStatusCompleted).
		Preload("Buyer")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count purchasers: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at"})
	query = utils.ApplyPagination(query, params)

	var purchases []models.Purchase
	if err := query.Find(&purchases).Error; err != nil {
		return nil, 0, fmt.Errorf("list purchasers: %w", err)
	}
	return purchases, total, nil
}

func (r *GormPurchaseRepository) CompletedByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Joins("JOIN prompts ON prompts.id = purchases.prompt_id").
		Where("prompts.creator_id = ? AND purchases.status = ?", creatorID, models.PurchaseStatusCompleted).
		Preload("Prompt").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("list completed purchases by creator: %w", err)
	}
	return purchases, nil
}
