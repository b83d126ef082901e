// internal/services/prompt_service_test.go
package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompteconomy/backend/internal/models"
)

func newPromptService(t *testing.T) (*PromptService, *fakeUserRepo, *fakePromptRepo, *models.User) {
	users := newFakeUserRepo()
	prompts := newFakePromptRepo()
	creator := seedUser(t, users, "0x"+strings.Repeat("d", 40), "dora", "dora@example.com")
	return NewPromptService(prompts, users), users, prompts, creator
}

func validCreateRequest() CreatePromptRequest {
	return CreatePromptRequest{
		Title:       "Changelog writer",
		Description: "Turns commit logs into readable release notes.",
		Content:     "You are a release manager. Given commits...",
		Category:    "Writing",
		Price:       "250000000000000000",
	}
}

func TestCreatePromptPromotesCreator(t *testing.T) {
	svc, users, _, creator := newPromptService(t)

	prompt, err := svc.Create(context.Background(), creator.ID, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, creator.ID, prompt.CreatorID)
	assert.Equal(t, creator.WalletAddress, prompt.CreatorWallet)
	assert.True(t, prompt.IsActive)
	assert.Equal(t, "Any", prompt.AIModel)
	assert.Equal(t, "Intermediate", prompt.Difficulty)

	updated, err := users.ByID(context.Background(), creator.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleCreator, updated.Role)
	assert.Equal(t, int64(1), updated.TotalPrompts)
}

func TestCreatePromptRejectsBadInput(t *testing.T) {
	svc, _, _, creator := newPromptService(t)

	req := validCreateRequest()
	req.Category = "Nonsense"
	_, err := svc.Create(context.Background(), creator.ID, req)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	req = validCreateRequest()
	req.Price = "0"
	_, err = svc.Create(context.Background(), creator.ID, req)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	req = validCreateRequest()
	req.Price = "1.5"
	_, err = svc.Create(context.Background(), creator.ID, req)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestUpdatePromptCreatorOnly(t *testing.T) {
	svc, users, _, creator := newPromptService(t)
	stranger := seedUser(t, users, "0x"+strings.Repeat("e", 40), "eve", "eve@example.com")

	prompt, err := svc.Create(context.Background(), creator.ID, validCreateRequest())
	require.NoError(t, err)

	newTitle := "Changelog writer v2"
	_, err = svc.Update(context.Background(), stranger.ID, prompt.ID, UpdatePromptRequest{Title: &newTitle})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	updated, err := svc.Update(context.Background(), creator.ID, prompt.ID, UpdatePromptRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
}

func TestDeactivatePromptHidesFromSearch(t *testing.T) {
	svc, _, prompts, creator := newPromptService(t)

	prompt, err := svc.Create(context.Background(), creator.ID, validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), creator.ID, prompt.ID))

	stored, err := prompts.ByID(context.Background(), prompt.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	// Still fetchable directly: buyers who already paid keep access.
	got, err := svc.Get(context.Background(), prompt.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestGetIncrementsViews(t *testing.T) {
	svc, _, prompts, creator := newPromptService(t)

	prompt, err := svc.Create(context.Background(), creator.ID, validCreateRequest())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.Get(context.Background(), prompt.ID)
		require.NoError(t, err)
	}

	stored, err := prompts.ByID(context.Background(), prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.ViewCount)
}
