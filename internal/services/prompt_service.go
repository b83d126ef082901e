// internal/services/prompt_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/prompteconomy/backend/internal/models"
	"github.com/prompteconomy/backend/internal/repository"
	"github.com/prompteconomy/backend/internal/utils"
)

type PromptService struct {
	prompts repository.PromptRepository
	users   repository.UserRepository
}

func NewPromptService(prompts repository.PromptRepository, users repository.UserRepository) *PromptService {
	return &PromptService{prompts: prompts, users: users}
}

type CreatePromptRequest struct {
	Title        string   `json:"title" validate:"required,min=3,max=200"`
	Description  string   `json:"description" validate:"required,min=10,max=2000"`
	Content      string   `json:"content" validate:"required,min=10"`
	Category     string   `json:"category" validate:"required"`
	Tags         []string `json:"tags" validate:"max=10,dive,min=1,max=30"`
	Price        string   `json:"price" validate:"required,wei"`
	SampleOutput string   `json:"sample_output" validate:"max=1000"`
	AIModel      string   `json:"ai_model" validate:"max=50"`
	Difficulty   string   `json:"difficulty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Language     string   `json:"language" validate:"max=50"`
}

type UpdatePromptRequest struct {
	Title        *string  `json:"title" validate:"omitempty,min=3,max=200"`
	Description  *string  `json:"description" validate:"omitempty,min=10,max=2000"`
	Content      *string  `json:"content" validate:"omitempty,min=10"`
	Tags         []string `json:"tags" validate:"max=10,dive,min=1,max=30"`
	Price        *string  `json:"price" validate:"omitempty,wei"`
	SampleOutput *string  `json:"sample_output" validate:"omitempty,max=1000"`
	IsActive     *bool    `json:"is_active"`
}

func (s *PromptService) Create(ctx context.Context, creatorID uuid.UUID, req CreatePromptRequest) (*models.Prompt, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, ValidationError("invalid prompt")
	}

	if !models.IsValidCategory(req.Category) {
		return nil, ValidationError("unknown category")
	}

	price, err := models.NewWei(req.Price)
	if err != nil {
		return nil, ValidationError("price must be a non-negative integer in wei")
	}
	if price.IsZero() {
		return nil, ValidationError("price must be greater than zero")
	}

	creator, err := s.users.ByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("user not found")
		}
		return nil, InternalError("look up creator", err)
	}
	if !creator.IsActive() {
		return nil, ForbiddenError("account is deactivated or banned")
	}

	prompt := &models.Prompt{
		CreatorID:     creatorID,
		CreatorWallet: creator.WalletAddress,
		Title:         req.Title,
		Description:   req.Description,
		Content:       req.Content,
		Category:      req.Category,
		Tags:          req.Tags,
		Price:         price,
		SampleOutput:  req.SampleOutput,
		AIModel:       req.AIModel,
		Difficulty:    req.Difficulty,
		Language:      req.Language,
		IsActive:      true,
	}
	if prompt.AIModel == "" {
		prompt.AIModel = "Any"
	}
	if prompt.Difficulty == "" {
		prompt.Difficulty = "Intermediate"
	}
	if prompt.Language == "" {
		prompt.Language = "English"
	}

	if err := s.prompts.Create(ctx, prompt); err != nil {
		return nil, InternalError("create prompt", err)
	}

	// First listing promotes the account to creator.
	creator.TotalPrompts++
	if creator.Role == models.UserRoleUser {
		creator.Role = models.UserRoleCreator
	}
	if err := s.users.Update(ctx, creator); err != nil {
		return nil, InternalError("update creator stats", err)
	}

	return prompt, nil
}

// Get loads one prompt and bumps its view counter. Callers gate the Content
// field separately; this method never decides access.
func (s *PromptService) Get(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	prompt, err := s.prompts.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("prompt not found")
		}
		return nil, InternalError("look up prompt", err)
	}

	if err := s.prompts.IncrementViews(ctx, id); err != nil {
		return nil, InternalError("increment views", err)
	}
	prompt.ViewCount++

	return prompt, nil
}

func (s *PromptService) Search(ctx context.Context, params repository.PromptSearchParams) ([]models.Prompt, int64, error) {
	prompts, total, err := s.prompts.Search(ctx, params)
	if err != nil {
		return nil, 0, InternalError("search prompts", err)
	}
	return prompts, total, nil
}

func (s *PromptService) Update(ctx context.Context, callerID, promptID uuid.UUID, req UpdatePromptRequest) (*models.Prompt, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, ValidationError("invalid prompt update")
	}

	prompt, err := s.prompts.ByID(ctx, promptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("prompt not found")
		}
		return nil, InternalError("look up prompt", err)
	}

	if prompt.CreatorID != callerID {
		return nil, ForbiddenError("only the creator can update this prompt")
	}

	if req.Title != nil {
		prompt.Title = *req.Title
	}
	if req.Description != nil {
		prompt.Description = *req.Description
	}
	if req.Content != nil {
		prompt.Content = *req.Content
	}
	if req.Tags != nil {
		prompt.Tags = req.Tags
	}
	if req.Price != nil {
		price, err := models.NewWei(*req.Price)
		if err != nil {
			return nil, ValidationError("price must be a non-negative integer in wei")
		}
		if price.IsZero() {
			return nil, ValidationError("price must be greater than zero")
		}
		prompt.Price = price
	}
	if req.SampleOutput != nil {
		prompt.SampleOutput = *req.SampleOutput
	}
	if req.IsActive != nil {
		prompt.IsActive = *req.IsActive
	}

	if err := s.prompts.Update(ctx, prompt); err != nil {
		return nil, InternalError("update prompt", err)
	}

	return prompt, nil
}

// Deactivate takes a prompt off the marketplace. Existing buyers keep access;
// only new purchases are blocked.
func (s *PromptService) Deactivate(ctx context.Context, callerID, promptID uuid.UUID) error {
	prompt, err := s.prompts.ByID(ctx, promptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFoundError("prompt not found")
		}
		return InternalError("look up prompt", err)
	}

	if prompt.CreatorID != callerID {
		return ForbiddenError("only the creator can remove this prompt")
	}

	prompt.IsActive = false
	if err := s.prompts.Update(ctx, prompt); err != nil {
		return InternalError("deactivate prompt", err)
	}

	return nil
}
