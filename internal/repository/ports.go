// internal/repository/ports.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/prompteconomy/backend/internal/models"
	"github.com/prompteconomy/backend/internal/utils"
)

// Sentinel errors shared by every backend implementation. Services translate
// these into their own error taxonomy.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key value violates a unique constraint")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	ByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ByWallet(ctx context.Context, address string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error

	// RotateNonce consumes the current nonce and installs the next one in a
	// single compare-and-swap. It returns false when the stored nonce no
	// longer matches `current`, which is how a replayed signed message is
	// detected under concurrent authentication attempts.
	RotateNonce(ctx context.Context, id uuid.UUID, current, next string, loginAt time.Time) (bool, error)
}

type PromptSearchParams struct {
	utils.PaginationParams
	CreatorID  *uuid.UUID
	PriceMin   *models.Wei
	PriceMax   *models.Wei
	Tags       []string
	AIModel    string
	Difficulty string
	ActiveOnly bool
}

type PromptRepository interface {
	Create(ctx context.Context, prompt *models.Prompt) error
	ByID(ctx context.Context, id uuid.UUID) (*models.Prompt, error)
	Update(ctx context.Context, prompt *models.Prompt) error
	Search(ctx context.Context, params PromptSearchParams) ([]models.Prompt, int64, error)

	// IncrementViews bumps the view counter without racing concurrent reads.
	IncrementViews(ctx context.Context, id uuid.UUID) error

	// AddRating folds one review score into the prompt's aggregate rating.
	AddRating(ctx context.Context, id uuid.UUID, rating int) error
}

type PurchaseRepository interface {
	// Create inserts a new pending record. Uniqueness of (buyer, prompt) and
	// of the transaction hash is enforced by the database inside this single
	// insert, so concurrent initiations cannot both succeed; the loser gets
	// ErrDuplicateKey.
	Create(ctx context.Context, purchase *models.Purchase) error

	ByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	ByBuyerAndPrompt(ctx context.Context, buyerID, promptID uuid.UUID) (*models.Purchase, error)

	// Settle performs the Pending -> Completed transition and the single
	// purchase-counter increment atomically. It returns true only for the
	// caller that actually performed the transition; every other concurrent
	// caller observes false and must re-read the committed row.
	Settle(ctx context.Context, id uuid.UUID, blockNumber uint64, grantedAt time.Time) (bool, error)

	// Fail performs the Pending -> Failed transition under the same
	// only-if-still-pending guard. Counters are never touched.
	Fail(ctx context.Context, id uuid.UUID) (bool, error)

	// SetReview records a rating and review exactly once.
	SetReview(ctx context.Context, id uuid.UUID, rating int, review string, at time.Time) (bool, error)

	HasAccess(ctx context.Context, buyerID, promptID uuid.UUID) (bool, error)
	ListCompletedByBuyer(ctx context.Context, buyerID uuid.UUID, params utils.PaginationParams) ([]models.Purchase, int64, error)
	ListCompletedByPrompt(ctx context.Context, promptID uuid.UUID, params utils.PaginationParams) ([]models.Purchase, int64, error)

	// CompletedByCreator returns every completed purchase of the creator's
	// prompts with the Prompt relation loaded, for earnings aggregation.
	CompletedByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Purchase, error)
}
