// internal/services/testhelpers_test.go
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prompteconomy/backend/internal/blockchain"
	"github.com/prompteconomy/backend/internal/config"
	"github.com/prompteconomy/backend/internal/models"
	"github.com/prompteconomy/backend/internal/repository"
	"github.com/prompteconomy/backend/internal/utils"
)

// The fakes below reproduce the repository contracts in memory: unique
// constraints reject duplicate inserts, and the conditional transitions
// (RotateNonce, Settle, Fail, SetReview) are compare-and-swap under one
// mutex, matching what the SQL guards provide.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.WalletAddress == user.WalletAddress || u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicateKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) ByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) ByWallet(_ context.Context, address string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.WalletAddress, address) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) ByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) RotateNonce(_ context.Context, id uuid.UUID, current, next string, loginAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.Nonce != current {
		return false, nil
	}
	u.Nonce = next
	u.LastLoginAt = &loginAt
	return true, nil
}

type fakePromptRepo struct {
	mu      sync.Mutex
	prompts map[uuid.UUID]*models.Prompt
}

func newFakePromptRepo() *fakePromptRepo {
	return &fakePromptRepo{prompts: make(map[uuid.UUID]*models.Prompt)}
}

func (r *fakePromptRepo) Create(_ context.Context, prompt *models.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.ID == uuid.Nil {
		prompt.ID = uuid.New()
	}
	cp := *prompt
	r.prompts[prompt.ID] = &cp
	return nil
}

func (r *fakePromptRepo) ByID(_ context.Context, id uuid.UUID) (*models.Prompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.prompts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePromptRepo) Update(_ context.Context, prompt *models.Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.prompts[prompt.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *prompt
	r.prompts[prompt.ID] = &cp
	return nil
}

func (r *fakePromptRepo) Search(_ context.Context, params repository.PromptSearchParams) ([]models.Prompt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Prompt
	for _, p := range r.prompts {
		if params.ActiveOnly && !p.IsActive {
			continue
		}
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		if params.CreatorID != nil && p.CreatorID != *params.CreatorID {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePromptRepo) IncrementViews(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.prompts[id]; ok {
		p.ViewCount++
	}
	return nil
}

func (r *fakePromptRepo) AddRating(_ context.Context, id uuid.UUID, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.prompts[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Rating = (p.Rating*float64(p.ReviewCount) + float64(rating)) / float64(p.ReviewCount+1)
	p.ReviewCount++
	return nil
}

type fakePurchaseRepo struct {
	mu        sync.Mutex
	purchases map[uuid.UUID]*models.Purchase
	prompts   *fakePromptRepo
}

func newFakePurchaseRepo(prompts *fakePromptRepo) *fakePurchaseRepo {
	return &fakePurchaseRepo{
		purchases: make(map[uuid.UUID]*models.Purchase),
		prompts:   prompts,
	}
}

func (r *fakePurchaseRepo) Create(_ context.Context, purchase *models.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.purchases {
		if p.BuyerID == purchase.BuyerID && p.PromptID == purchase.PromptID {
			return repository.ErrDuplicateKey
		}
		if p.TransactionHash == purchase.TransactionHash {
			return repository.ErrDuplicateKey
		}
	}
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	cp := *purchase
	r.purchases[purchase.ID] = &cp
	return nil
}

func (r *fakePurchaseRepo) ByID(_ context.Context, id uuid.UUID) (*models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.purchases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	if r.prompts != nil {
		if prompt, ok := r.prompts.prompts[p.PromptID]; ok {
			cp.Prompt = *prompt
		}
	}
	return &cp, nil
}

func (r *fakePurchaseRepo) ByBuyerAndPrompt(_ context.Context, buyerID, promptID uuid.UUID) (*models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.purchases {
		if p.BuyerID == buyerID && p.PromptID == promptID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePurchaseRepo) Settle(_ context.Context, id uuid.UUID, blockNumber uint64, grantedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.purchases[id]
	if !ok || p.Status != models.PurchaseStatusPending {
		return false, nil
	}

	p.Status = models.PurchaseStatusCompleted
	p.Verified = true
	p.AccessGranted = true
	p.AccessGrantedAt = &grantedAt
	p.BlockNumber = &blockNumber

	if r.prompts != nil {
		r.prompts.mu.Lock()
		if prompt, ok := r.prompts.prompts[p.PromptID]; ok {
			prompt.PurchaseCount++
		}
		r.prompts.mu.Unlock()
	}
	return true, nil
}

func (r *fakePurchaseRepo) Fail(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.purchases[id]
	if !ok || p.Status != models.PurchaseStatusPending {
		return false, nil
	}
	p.Status = models.PurchaseStatusFailed
	return true, nil
}

func (r *fakePurchaseRepo) SetReview(_ context.Context, id uuid.UUID, rating int, review string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.purchases[id]
	if !ok || p.Rating != nil {
		return false, nil
	}
	p.Rating = &rating
	p.Review = review
	p.ReviewedAt = &at
	return true, nil
}

func (r *fakePurchaseRepo) HasAccess(_ context.Context, buyerID, promptID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.purchases {
		if p.BuyerID == buyerID && p.PromptID == promptID &&
			p.Status == models.PurchaseStatusCompleted && p.AccessGranted {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePurchaseRepo) ListCompletedByBuyer(_ context.Context, buyerID uuid.UUID, _ utils.PaginationParams) ([]models.Purchase, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Purchase
	for _, p := range r.purchases {
		if p.BuyerID == buyerID && p.Status == models.PurchaseStatusCompleted {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePurchaseRepo) ListCompletedByPrompt(_ context.Context, promptID uuid.UUID, _ utils.PaginationParams) ([]models.Purchase, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Purchase
	for _, p := range r.purchases {
		if p.PromptID == promptID && p.Status == models.PurchaseStatusCompleted {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePurchaseRepo) CompletedByCreator(_ context.Context, creatorID uuid.UUID) ([]models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Purchase
	for _, p := range r.purchases {
		if p.Status != models.PurchaseStatusCompleted {
			continue
		}
		if r.prompts == nil {
			continue
		}
		r.prompts.mu.Lock()
		prompt, ok := r.prompts.prompts[p.PromptID]
		r.prompts.mu.Unlock()
		if !ok || prompt.CreatorID != creatorID {
			continue
		}
		cp := *p
		cp.Prompt = *prompt
		out = append(out, cp)
	}
	return out, nil
}

// fakeChain answers receipt lookups from a fixed table and counts calls so
// tests can assert that terminal states never hit the chain again.
type fakeChain struct {
	mu       sync.Mutex
	receipts map[string]*blockchain.Receipt
	errs     map[string]error
	calls    int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		receipts: make(map[string]*blockchain.Receipt),
		errs:     make(map[string]error),
	}
}

func (c *fakeChain) Receipt(_ context.Context, txHash string) (*blockchain.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if err, ok := c.errs[txHash]; ok {
		return nil, err
	}
	if r, ok := c.receipts[txHash]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, blockchain.ErrReceiptNotFound
}

func (c *fakeChain) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func testPagination() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		Payment: config.PaymentConfig{PlatformFeePercent: 5},
	}
}

func seedUser(t interface{ Fatalf(string, ...interface{}) }, repo *fakeUserRepo, wallet, username, email string) *models.User {
	nonce, _ := utils.GenerateNonce()
	user := &models.User{
		WalletAddress: strings.ToLower(wallet),
		Username:      username,
		Email:         strings.ToLower(email),
		Nonce:         nonce,
		Role:          models.UserRoleUser,
		Status:        models.UserStatusActive,
	}
	if err := user.SetPassword("Sup3rSecret!"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedPrompt(t interface{ Fatalf(string, ...interface{}) }, repo *fakePromptRepo, creator *models.User, price string) *models.Prompt {
	prompt := &models.Prompt{
		CreatorID:     creator.ID,
		CreatorWallet: creator.WalletAddress,
		Title:         "Code reviewer",
		Description:   "Reviews pull requests with a focus on concurrency bugs.",
		Content:       "You are a meticulous reviewer. Given a diff...",
		Category:      "Coding",
		Price:         models.MustWei(price),
		IsActive:      true,
	}
	if err := repo.Create(context.Background(), prompt); err != nil {
		t.Fatalf("seed prompt: %v", err)
	}
	return prompt
}
