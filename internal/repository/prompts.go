// internal/repository/prompts.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/prompteconomy/backend/internal/models"
	"github.com/prompteconomy/backend/internal/utils"
)

type GormPromptRepository struct {
	db *gorm.DB
}

func NewGormPromptRepository(db *gorm.DB) *GormPromptRepository {
	return &GormPromptRepository{db: db}
}

func (r *GormPromptRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	if err := r.db.WithContext(ctx).Create(prompt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create prompt: %w", err)
	}
	return nil
}

func (r *GormPromptRepository) ByID(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	var prompt models.Prompt
	err := r.db.WithContext(ctx).Preload("Creator").First(&prompt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get prompt by id: %w", err)
	}
	return &prompt, nil
}

func (r *GormPromptRepository) Update(ctx context.Context, prompt *models.Prompt) error {
	if err := r.db.WithContext(ctx).Save(prompt).Error; err != nil {
		return fmt.Errorf("update prompt: %w", err)
	}
	return nil
}

func (r *GormPromptRepository) Search(ctx context.Context, params PromptSearchParams) ([]models.Prompt, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Prompt{}).Preload("Creator")

	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.CreatorID != nil {
		query = query.Where("creator_id = ?", *params.CreatorID)
	}
	if params.AIModel != "" {
		query = query.Where("ai_model = ?", params.AIModel)
	}
	if params.Difficulty != "" {
		query = query.Where("difficulty = ?", params.Difficulty)
	}
	if params.PriceMin != nil {
		query = query.Where("price >= ?", params.PriceMin.String())
	}
	if params.PriceMax != nil {
		query = query.Where("price <= ?", params.PriceMax.String())
	}
	if len(params.Tags) > 0 {
		query = query.Where("tags && ?", pq.Array(params.Tags))
	}
	if params.Search != "" {
		query = query.Where(
			"to_tsvector('english', title || ' ' || description) @@ plainto_tsquery('english', ?)",
			params.Search,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count prompts: %w", err)
	}

	allowedSortFields := []string{"created_at", "price", "purchase_count", "rating", "view_count"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var prompts []models.Prompt
	if err := query.Find(&prompts).Error; err != nil {
		return nil, 0, fmt.Errorf("search prompts: %w", err)
	}

	return prompts, total, nil
}

func (r *GormPromptRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&models.Prompt{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// AddRating recomputes the running average in SQL so concurrent reviews of
// different purchases cannot lose updates.
func (r *GormPromptRepository) AddRating(ctx context.Context, id uuid.UUID, rating int) error {
	err := r.db.WithContext(ctx).
		Model(&models.Prompt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating":       gorm.Expr("(rating * review_count + ?) / (review_count + 1)", rating),
			"review_count": gorm.Expr("review_count + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("add rating: %w", err)
	}
	return nil
}
