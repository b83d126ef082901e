// internal/services/purchase_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prompteconomy/backend/internal/blockchain"
	"github.com/prompteconomy/backend/internal/models"
	"github.com/prompteconomy/backend/internal/repository"
	"github.com/prompteconomy/backend/internal/utils"
)

type PurchaseService struct {
	purchases  repository.PurchaseRepository
	prompts    repository.PromptRepository
	chain      blockchain.Client
	feePercent int64
}

func NewPurchaseService(purchases repository.PurchaseRepository, prompts repository.PromptRepository, chain blockchain.Client, feePercent int64) *PurchaseService {
	return &PurchaseService{
		purchases:  purchases,
		prompts:    prompts,
		chain:      chain,
		feePercent: feePercent,
	}
}

type InitiatePurchaseRequest struct {
	PromptID        string `json:"prompt_id" validate:"required,uuid"`
	TransactionHash string `json:"transaction_hash" validate:"required,tx_hash"`
	Price           string `json:"price" validate:"required,wei"`
}

type ReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=500"`
}

// EarningsBreakdown is one prompt's slice of a creator's revenue.
type EarningsBreakdown struct {
	PromptID string `json:"prompt_id"`
	Title    string `json:"title"`
	Sales    int64  `json:"sales"`
	Wei      string `json:"wei"`
}

type EarningsReport struct {
	TotalWei   string              `json:"total_wei"`
	TotalMatic string              `json:"total_matic"`
	TotalSales int64               `json:"total_sales"`
	Breakdown  []EarningsBreakdown `json:"breakdown"`
}

// Initiate records a pending purchase for a submitted transaction hash. The
// claimed price must equal the current listing price exactly; the fee split
// is computed and frozen on the row at initiation time so a later price
// change never alters an in-flight settlement.
func (s *PurchaseService) Initiate(ctx context.Context, buyerID uuid.UUID, buyerWallet string, req InitiatePurchaseRequest) (*models.Purchase, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, ValidationError("invalid purchase request")
	}

	promptID, err := uuid.Parse(req.PromptID)
	if err != nil {
		return nil, ValidationError("invalid prompt id")
	}

	price, err := models.NewWei(req.Price)
	if err != nil {
		return nil, ValidationError("price must be a non-negative integer in wei")
	}

	prompt, err := s.prompts.ByID(ctx, promptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("prompt not found")
		}
		return nil, InternalError("look up prompt", err)
	}
	if !prompt.IsActive {
		return nil, NotFoundError("prompt is no longer available")
	}

	if prompt.CreatorID == buyerID {
		return nil, ConflictError("cannot purchase your own prompt")
	}

	if price.Cmp(prompt.Price) != 0 {
		return nil, ValidationError("payment amount does not match the listing price")
	}

	// Pre-check for a friendlier error; the database constraint is what
	// actually guarantees uniqueness under concurrency.
	if _, err := s.purchases.ByBuyerAndPrompt(ctx, buyerID, promptID); err == nil {
		return nil, ConflictError("prompt already purchased")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, InternalError("check existing purchase", err)
	}

	fee, earning := SplitPrice(price, s.feePercent)

	purchase := &models.Purchase{
		BuyerID:         buyerID,
		BuyerWallet:     strings.ToLower(buyerWallet),
		PromptID:        promptID,
		Price:           price,
		PlatformFee:     fee,
		CreatorEarning:  earning,
		TransactionHash: strings.ToLower(req.TransactionHash),
		Status:          models.PurchaseStatusPending,
	}

	if err := s.purchases.Create(ctx, purchase); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ConflictError("prompt already purchased or transaction hash already used")
		}
		return nil, InternalError("create purchase", err)
	}

	return purchase, nil
}

// Verify settles a pending purchase against the chain. Terminal states short
// circuit without touching the chain; a missing or unreachable receipt leaves
// the row pending and returns a retryable error; a reverted receipt fails the
// purchase permanently; a successful receipt completes it and grants access.
// Concurrent callers all converge on the single committed outcome.
func (s *PurchaseService) Verify(ctx context.Context, callerID, purchaseID uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.purchases.ByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("purchase not found")
		}
		return nil, InternalError("look up purchase", err)
	}

	if purchase.BuyerID != callerID {
		return nil, ForbiddenError("only the buyer can verify this purchase")
	}

	switch purchase.Status {
	case models.PurchaseStatusCompleted:
		return purchase, nil
	case models.PurchaseStatusFailed:
		return nil, FatalChainError("transaction failed on chain")
	case models.PurchaseStatusRefunded:
		return nil, ConflictError("purchase was refunded")
	}

	receipt, err := s.chain.Receipt(ctx, purchase.TransactionHash)
	if err != nil {
		if errors.Is(err, blockchain.ErrReceiptNotFound) {
			return nil, RetryableChainError("transaction not confirmed yet, try again shortly", err)
		}
		return nil, RetryableChainError("attestation source unavailable, try again shortly", err)
	}

	if !receipt.Confirmed {
		if _, err := s.purchases.Fail(ctx, purchaseID); err != nil {
			return nil, InternalError("record failed transaction", err)
		}
		return nil, FatalChainError("transaction reverted on chain")
	}

	transitioned, err := s.purchases.Settle(ctx, purchaseID, receipt.BlockNumber, time.Now())
	if err != nil {
		return nil, InternalError("settle purchase", err)
	}

	// Losing racers fall through here too: re-read and report the committed
	// outcome, whatever the winner decided.
	settled, err := s.purchases.ByID(ctx, purchaseID)
	if err != nil {
		return nil, InternalError("reload purchase", err)
	}
	if !transitioned && settled.Status == models.PurchaseStatusFailed {
		return nil, FatalChainError("transaction failed on chain")
	}

	return settled, nil
}

// CanView reports whether a user may read a prompt's protected content.
// Creators always see their own prompts; everyone else needs a settled
// purchase.
func (s *PurchaseService) CanView(ctx context.Context, userID uuid.UUID, prompt *models.Prompt) (bool, error) {
	if prompt.CreatorID == userID {
		return true, nil
	}

	hasAccess, err := s.purchases.HasAccess(ctx, userID, prompt.ID)
	if err != nil {
		return false, InternalError("check access", err)
	}
	return hasAccess, nil
}

func (s *PurchaseService) CheckAccess(ctx context.Context, userID, promptID uuid.UUID) (bool, error) {
	prompt, err := s.prompts.ByID(ctx, promptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, NotFoundError("prompt not found")
		}
		return false, InternalError("look up prompt", err)
	}
	return s.CanView(ctx, userID, prompt)
}

func (s *PurchaseService) GetByID(ctx context.Context, callerID, purchaseID uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.purchases.ByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("purchase not found")
		}
		return nil, InternalError("look up purchase", err)
	}
	if purchase.BuyerID != callerID {
		return nil, ForbiddenError("not your purchase")
	}
	return purchase, nil
}

func (s *PurchaseService) ListByBuyer(ctx context.Context, buyerID uuid.UUID, params utils.PaginationParams) ([]models.Purchase, int64, error) {
	purchases, total, err := s.purchases.ListCompletedByBuyer(ctx, buyerID, params)
	if err != nil {
		return nil, 0, InternalError("list purchases", err)
	}
	return purchases, total, nil
}

// ListPurchasers returns the completed purchases of one prompt. Only its
// creator may see who bought it.
func (s *PurchaseService) ListPurchasers(ctx context.Context, callerID, promptID uuid.UUID, params utils.PaginationParams) ([]models.Purchase, int64, error) {
	prompt, err := s.prompts.ByID(ctx, promptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, NotFoundError("prompt not found")
		}
		return nil, 0, InternalError("look up prompt", err)
	}
	if prompt.CreatorID != callerID {
		return nil, 0, ForbiddenError("only the creator can list purchasers")
	}

	purchases, total, err := s.purchases.ListCompletedByPrompt(ctx, promptID, params)
	if err != nil {
		return nil, 0, InternalError("list purchasers", err)
	}
	return purchases, total, nil
}

// Earnings sums a creator's settled revenue in exact integer wei. The total
// equals the sum of the breakdown by construction: both are folded from the
// same rows in one pass.
func (s *PurchaseService) Earnings(ctx context.Context, creatorID uuid.UUID) (*EarningsReport, error) {
	purchases, err := s.purchases.CompletedByCreator(ctx, creatorID)
	if err != nil {
		return nil, InternalError("load completed purchases", err)
	}

	type bucket struct {
		title string
		sales int64
		sum   models.Wei
	}

	var total models.Wei
	var totalSales int64
	perPrompt := make(map[uuid.UUID]*bucket)
	order := make([]uuid.UUID, 0)

	for i := range purchases {
		p := &purchases[i]
		total = total.Add(p.CreatorEarning)
		totalSales++

		b, ok := perPrompt[p.PromptID]
		if !ok {
			b = &bucket{title: p.Prompt.Title}
			perPrompt[p.PromptID] = b
			order = append(order, p.PromptID)
		}
		b.sales++
		b.sum = b.sum.Add(p.CreatorEarning)
	}

	breakdown := make([]EarningsBreakdown, 0, len(order))
	for _, id := range order {
		b := perPrompt[id]
		breakdown = append(breakdown, EarningsBreakdown{
			PromptID: id.String(),
			Title:    b.title,
			Sales:    b.sales,
			Wei:      b.sum.String(),
		})
	}

	return &EarningsReport{
		TotalWei:   total.String(),
		TotalMatic: total.Matic(),
		TotalSales: totalSales,
		Breakdown:  breakdown,
	}, nil
}

// AddReview records a rating on a settled purchase exactly once and folds it
// into the prompt's aggregate rating.
func (s *PurchaseService) AddReview(ctx context.Context, buyerID, purchaseID uuid.UUID, req ReviewRequest) (*models.Purchase, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, ValidationError("rating must be between 1 and 5")
	}

	purchase, err := s.purchases.ByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("purchase not found")
		}
		return nil, InternalError("look up purchase", err)
	}

	if purchase.BuyerID != buyerID {
		return nil, ForbiddenError("only the buyer can review this purchase")
	}
	if !purchase.Settled() {
		return nil, ConflictError("purchase is not completed")
	}

	recorded, err := s.purchases.SetReview(ctx, purchaseID, req.Rating, req.Review, time.Now())
	if err != nil {
		return nil, InternalError("record review", err)
	}
	if !recorded {
		return nil, ConflictError("purchase already reviewed")
	}

	if err := s.prompts.AddRating(ctx, purchase.PromptID, req.Rating); err != nil {
		return nil, InternalError("update prompt rating", err)
	}

	return s.purchases.ByID(ctx, purchaseID)
}
