// internal/services/purchase_service_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompteconomy/backend/internal/blockchain"
	"github.com/prompteconomy/backend/internal/models"
)

var (
	txA = "0x" + strings.Repeat("1", 64)
	txB = "0x" + strings.Repeat("2", 64)
)

type purchaseFixture struct {
	users     *fakeUserRepo
	prompts   *fakePromptRepo
	purchases *fakePurchaseRepo
	chain     *fakeChain
	svc       *PurchaseService
	creator   *models.User
	buyer     *models.User
	prompt    *models.Prompt
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	users := newFakeUserRepo()
	prompts := newFakePromptRepo()
	purchases := newFakePurchaseRepo(prompts)
	chain := newFakeChain()

	creator := seedUser(t, users, "0x"+strings.Repeat("a", 40), "creator", "creator@example.com")
	buyer := seedUser(t, users, "0x"+strings.Repeat("b", 40), "buyer", "buyer@example.com")
	prompt := seedPrompt(t, prompts, creator, "1000000000000000000")

	return &purchaseFixture{
		users:     users,
		prompts:   prompts,
		purchases: purchases,
		chain:     chain,
		svc:       NewPurchaseService(purchases, prompts, chain, 5),
		creator:   creator,
		buyer:     buyer,
		prompt:    prompt,
	}
}

func (f *purchaseFixture) initiate(t *testing.T, txHash string) *models.Purchase {
	t.Helper()
	purchase, err := f.svc.Initiate(context.Background(), f.buyer.ID, f.buyer.WalletAddress, InitiatePurchaseRequest{
		PromptID:        f.prompt.ID.String(),
		TransactionHash: txHash,
		Price:           f.prompt.Price.String(),
	})
	require.NoError(t, err)
	return purchase
}

func TestInitiateSplitsFeeExactly(t *testing.T) {
	f := newPurchaseFixture(t)

	purchase := f.initiate(t, txA)

	assert.Equal(t, models.PurchaseStatusPending, purchase.Status)
	assert.False(t, purchase.AccessGranted)
	assert.Equal(t, "50000000000000000", purchase.PlatformFee.String())
	assert.Equal(t, "950000000000000000", purchase.CreatorEarning.String())
	assert.Equal(t, purchase.Price.String(), purchase.PlatformFee.Add(purchase.CreatorEarning).String())
}

func TestInitiateRejectsSelfPurchase(t *testing.T) {
	f := newPurchaseFixture(t)

	_, err := f.svc.Initiate(context.Background(), f.creator.ID, f.creator.WalletAddress, InitiatePurchaseRequest{
		PromptID:        f.prompt.ID.String(),
		TransactionHash: txA,
		Price:           f.prompt.Price.String(),
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestInitiateRejectsPriceMismatch(t *testing.T) {
	f := newPurchaseFixture(t)

	_, err := f.svc.Initiate(context.Background(), f.buyer.ID, f.buyer.WalletAddress, InitiatePurchaseRequest{
		PromptID:        f.prompt.ID.String(),
		TransactionHash: txA,
		Price:           "999999999999999999",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestInitiateRejectsInactivePrompt(t *testing.T) {
	f := newPurchaseFixture(t)

	f.prompt.IsActive = false
	require.NoError(t, f.prompts.Update(context.Background(), f.prompt))

	_, err := f.svc.Initiate(context.Background(), f.buyer.ID, f.buyer.WalletAddress, InitiatePurchaseRequest{
		PromptID:        f.prompt.ID.String(),
		TransactionHash: txA,
		Price:           f.prompt.Price.String(),
	})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestInitiateRejectsDuplicatePurchase(t *testing.T) {
	f := newPurchaseFixture(t)

	f.initiate(t, txA)

	_, err := f.svc.Initiate(context.Background(), f.buyer.ID, f.buyer.WalletAddress, InitiatePurchaseRequest{
		PromptID:        f.prompt.ID.String(),
		TransactionHash: txB,
		Price:           f.prompt.Price.String(),
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestInitiateRejectsReusedTransactionHash(t *testing.T) {
	f := newPurchaseFixture(t)
	f.initiate(t, txA)

	other := seedUser(t, f.users, "0x"+strings.Repeat("c", 40), "other", "other@example.com")

	_, err := f.svc.Initiate(context.Background(), other.ID, other.WalletAddress, InitiatePurchaseRequest{
		PromptID:        f.prompt.ID.String(),
		TransactionHash: txA,
		Price:           f.prompt.Price.String(),
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestVerifyPendingReceiptLeavesPurchasePending(t *testing.T) {
	f := newPurchaseFixture(t)
	purchase := f.initiate(t, txA)

	// No receipt registered: chain reports not found.
	for i := 0; i < 3; i++ {
		_, err := f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
		require.Error(t, err)
		assert.Equal(t, KindChainRetryable, KindOf(err))
	}

	reloaded, err := f.purchases.ByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusPending, reloaded.Status)
	assert.False(t, reloaded.AccessGranted)
}

func TestVerifyNodeErrorIsRetryable(t *testing.T) {
	f := newPurchaseFixture(t)
	purchase := f.initiate(t, txA)

	f.chain.errs[purchase.TransactionHash] = errors.New("connection refused")

	_, err := f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
	require.Error(t, err)
	assert.Equal(t, KindChainRetryable, KindOf(err))

	reloaded, err := f.purchases.ByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusPending, reloaded.Status)
}

func TestVerifyRevertedReceiptFailsPermanently(t *testing.T) {
	f := newPurchaseFixture(t)
	purchase := f.initiate(t, txA)

	f.chain.receipts[purchase.TransactionHash] = &blockchain.Receipt{Confirmed: false}

	_, err := f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
	require.Error(t, err)
	assert.Equal(t, KindChainFatal, KindOf(err))

	reloaded, err := f.purchases.ByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusFailed, reloaded.Status)
	assert.False(t, reloaded.AccessGranted)

	// The failure is terminal even if the chain later claims success.
	f.chain.receipts[purchase.TransactionHash] = &blockchain.Receipt{Confirmed: true, BlockNumber: 99}
	_, err = f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
	require.Error(t, err)
	assert.Equal(t, KindChainFatal, KindOf(err))

	prompt, err := f.prompts.ByID(context.Background(), f.prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), prompt.PurchaseCount)
}

func TestVerifyConfirmedReceiptSettles(t *testing.T) {
	f := newPurchaseFixture(t)
	purchase := f.initiate(t, txA)

	f.chain.receipts[purchase.TransactionHash] = &blockchain.Receipt{Confirmed: true, BlockNumber: 4242}

	settled, err := f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PurchaseStatusCompleted, settled.Status)
	assert.True(t, settled.Verified)
	assert.True(t, settled.AccessGranted)
	require.NotNil(t, settled.BlockNumber)
	assert.Equal(t, uint64(4242), *settled.BlockNumber)

	prompt, err := f.prompts.ByID(context.Background(), f.prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prompt.PurchaseCount)
}

func TestVerifyCompletedShortCircuitsChain(t *testing.T) {
	f := newPurchaseFixture(t)
	purchase := f.initiate(t, txA)

	f.chain.receipts[purchase.TransactionHash] = &blockchain.Receipt{Confirmed: true, BlockNumber: 7}

	_, err := f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
	require.NoError(t, err)
	callsAfterSettle := f.chain.callCount()

	// Verifying an already-completed purchase never consults the chain.
	for i := 0; i < 5; i++ {
		settled, err := f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PurchaseStatusCompleted, settled.Status)
	}
	assert.Equal(t, callsAfterSettle, f.chain.callCount())

	prompt, err := f.prompts.ByID(context.Background(), f.prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prompt.PurchaseCount)
}

func TestVerifyOnlyBuyerMayVerify(t *testing.T) {
	f := newPurchaseFixture(t)
	purchase := f.initiate(t, txA)

	_, err := f.svc.Verify(context.Background(), f.creator.ID, purchase.ID)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestVerifyConcurrentCallersSettleOnce(t *testing.T) {
	f := newPurchaseFixture(t)
	purchase := f.initiate(t, txA)

	f.chain.receipts[purchase.TransactionHash] = &blockchain.Receipt{Confirmed: true, BlockNumber: 100}

	const callers = 50
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	// Exactly one transition, exactly one counter increment.
	prompt, err := f.prompts.ByID(context.Background(), f.prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prompt.PurchaseCount)

	settled, err := f.purchases.ByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusCompleted, settled.Status)
}

func TestCanView(t *testing.T) {
	f := newPurchaseFixture(t)

	// Creator always sees their own prompt.
	ok, err := f.svc.CanView(context.Background(), f.creator.ID, f.prompt)
	require.NoError(t, err)
	assert.True(t, ok)

	// No purchase: no access.
	ok, err = f.svc.CanView(context.Background(), f.buyer.ID, f.prompt)
	require.NoError(t, err)
	assert.False(t, ok)

	// Pending purchase: still no access.
	purchase := f.initiate(t, txA)
	ok, err = f.svc.CanView(context.Background(), f.buyer.ID, f.prompt)
	require.NoError(t, err)
	assert.False(t, ok)

	// Settled purchase: access granted.
	f.chain.receipts[purchase.TransactionHash] = &blockchain.Receipt{Confirmed: true, BlockNumber: 1}
	_, err = f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
	require.NoError(t, err)

	ok, err = f.svc.CanView(context.Background(), f.buyer.ID, f.prompt)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEarningsExactAggregation(t *testing.T) {
	f := newPurchaseFixture(t)

	// A second prompt with an indivisible price.
	second := seedPrompt(t, f.prompts, f.creator, "19")
	second.Title = "Regex explainer"
	require.NoError(t, f.prompts.Update(context.Background(), second))

	buyers := make([]*models.User, 3)
	for i := range buyers {
		wallet := fmt.Sprintf("0x%040d", i+100)
		buyers[i] = seedUser(t, f.users, wallet, fmt.Sprintf("buyer%d", i), fmt.Sprintf("b%d@example.com", i))
	}

	settle := func(buyer *models.User, prompt *models.Prompt, tx string) {
		t.Helper()
		purchase, err := f.svc.Initiate(context.Background(), buyer.ID, buyer.WalletAddress, InitiatePurchaseRequest{
			PromptID:        prompt.ID.String(),
			TransactionHash: tx,
			Price:           prompt.Price.String(),
		})
		require.NoError(t, err)
		f.chain.receipts[purchase.TransactionHash] = &blockchain.Receipt{Confirmed: true, BlockNumber: 1}
		_, err = f.svc.Verify(context.Background(), buyer.ID, purchase.ID)
		require.NoError(t, err)
	}

	settle(buyers[0], f.prompt, "0x"+fmt.Sprintf("%064d", 1))
	settle(buyers[1], f.prompt, "0x"+fmt.Sprintf("%064d", 2))
	settle(buyers[2], second, "0x"+fmt.Sprintf("%064d", 3))

	report, err := f.svc.Earnings(context.Background(), f.creator.ID)
	require.NoError(t, err)

	// 2 x 950000000000000000 + 1 x 19 (5% of 19 floors to 0).
	assert.Equal(t, "1900000000000000019", report.TotalWei)
	assert.Equal(t, int64(3), report.TotalSales)

	sum := models.MustWei("0")
	var sales int64
	for _, b := range report.Breakdown {
		w := models.MustWei(b.Wei)
		sum = sum.Add(w)
		sales += b.Sales
	}
	assert.Equal(t, report.TotalWei, sum.String())
	assert.Equal(t, report.TotalSales, sales)

	// Pending purchases never count.
	pendingBuyer := seedUser(t, f.users, "0x"+fmt.Sprintf("%040d", 999), "pending", "pending@example.com")
	_, err = f.svc.Initiate(context.Background(), pendingBuyer.ID, pendingBuyer.WalletAddress, InitiatePurchaseRequest{
		PromptID:        second.ID.String(),
		TransactionHash: "0x" + fmt.Sprintf("%064d", 4),
		Price:           second.Price.String(),
	})
	require.NoError(t, err)

	report, err = f.svc.Earnings(context.Background(), f.creator.ID)
	require.NoError(t, err)
	assert.Equal(t, "1900000000000000019", report.TotalWei)
}

func TestEarningsEmpty(t *testing.T) {
	f := newPurchaseFixture(t)

	report, err := f.svc.Earnings(context.Background(), f.creator.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", report.TotalWei)
	assert.Equal(t, int64(0), report.TotalSales)
	assert.Empty(t, report.Breakdown)
}

func TestAddReviewOnce(t *testing.T) {
	f := newPurchaseFixture(t)
	purchase := f.initiate(t, txA)

	// Reviews require a settled purchase.
	_, err := f.svc.AddReview(context.Background(), f.buyer.ID, purchase.ID, ReviewRequest{Rating: 5})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	f.chain.receipts[purchase.TransactionHash] = &blockchain.Receipt{Confirmed: true, BlockNumber: 1}
	_, err = f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
	require.NoError(t, err)

	reviewed, err := f.svc.AddReview(context.Background(), f.buyer.ID, purchase.ID, ReviewRequest{Rating: 4, Review: "solid"})
	require.NoError(t, err)
	require.NotNil(t, reviewed.Rating)
	assert.Equal(t, 4, *reviewed.Rating)

	prompt, err := f.prompts.ByID(context.Background(), f.prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prompt.ReviewCount)
	assert.InDelta(t, 4.0, prompt.Rating, 0.001)

	// Second review is rejected.
	_, err = f.svc.AddReview(context.Background(), f.buyer.ID, purchase.ID, ReviewRequest{Rating: 1})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	// Only the buyer can review.
	_, err = f.svc.AddReview(context.Background(), f.creator.ID, purchase.ID, ReviewRequest{Rating: 5})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestListPurchasersCreatorOnly(t *testing.T) {
	f := newPurchaseFixture(t)
	purchase := f.initiate(t, txA)

	f.chain.receipts[purchase.TransactionHash] = &blockchain.Receipt{Confirmed: true, BlockNumber: 1}
	_, err := f.svc.Verify(context.Background(), f.buyer.ID, purchase.ID)
	require.NoError(t, err)

	list, total, err := f.svc.ListPurchasers(context.Background(), f.creator.ID, f.prompt.ID, testPagination())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, f.buyer.ID, list[0].BuyerID)

	_, _, err = f.svc.ListPurchasers(context.Background(), f.buyer.ID, f.prompt.ID, testPagination())
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}
