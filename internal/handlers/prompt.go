// internal/handlers/prompt.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prompteconomy/backend/internal/i18n"
	"github.com/prompteconomy/backend/internal/models"
	"github.com/prompteconomy/backend/internal/repository"
	"github.com/prompteconomy/backend/internal/services"
	"github.com/prompteconomy/backend/internal/utils"
)

type PromptHandler struct {
	promptService   *services.PromptService
	purchaseService *services.PurchaseService
}

func NewPromptHandler(promptService *services.PromptService, purchaseService *services.PurchaseService) *PromptHandler {
	return &PromptHandler{
		promptService:   promptService,
		purchaseService: purchaseService,
	}
}

// promptDetailResponse shapes one prompt for the detail endpoint. The
// protected content is attached only when the caller passed the access check;
// for everyone else the field is absent, not empty.
func promptDetailResponse(prompt *models.Prompt, hasAccess bool) gin.H {
	resp := gin.H{
		"prompt":     prompt,
		"has_access": hasAccess,
	}
	if hasAccess {
		resp["content"] = prompt.Content
	}
	return resp
}

// GET /prompts
func (h *PromptHandler) List(c *gin.Context) {
	params := repository.PromptSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		ActiveOnly:       true,
	}

	if creator := c.Query("creator_id"); creator != "" {
		id, err := uuid.Parse(creator)
		if err != nil {
			utils.BadRequestResponse(c, "invalid creator_id", nil)
			return
		}
		params.CreatorID = &id
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		w, err := models.NewWei(minPrice)
		if err != nil {
			utils.BadRequestResponse(c, "invalid min_price", nil)
			return
		}
		params.PriceMin = &w
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		w, err := models.NewWei(maxPrice)
		if err != nil {
			utils.BadRequestResponse(c, "invalid max_price", nil)
			return
		}
		params.PriceMax = &w
	}
	params.Tags = c.QueryArray("tags")
	params.AIModel = c.Query("ai_model")
	params.Difficulty = c.Query("difficulty")

	prompts, total, err := h.promptService.Search(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(prompts, total, params.PaginationParams))
}

// GET /prompts/:id
func (h *PromptHandler) Get(c *gin.Context) {
	promptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	prompt, err := h.promptService.Get(c.Request.Context(), promptID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	hasAccess := false
	if raw, authed := utils.GetUserIDFromContext(c); authed {
		if userID, parseErr := uuid.Parse(raw); parseErr == nil {
			hasAccess, err = h.purchaseService.CanView(c.Request.Context(), userID, prompt)
			if err != nil {
				respondServiceError(c, err)
				return
			}
		}
	}

	utils.SuccessResponse(c, promptDetailResponse(prompt, hasAccess))
}

// POST /prompts
func (h *PromptHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req services.CreatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	prompt, err := h.promptService.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPromptCreated),
		"prompt":  prompt,
	})
}

// PUT /prompts/:id
func (h *PromptHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := callerID(c)
	if !ok {
		return
	}
	promptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	prompt, err := h.promptService.Update(c.Request.Context(), userID, promptID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPromptUpdated),
		"prompt":  prompt,
	})
}

// DELETE /prompts/:id
func (h *PromptHandler) Delete(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := callerID(c)
	if !ok {
		return
	}
	promptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.promptService.Deactivate(c.Request.Context(), userID, promptID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPromptDeactivated),
	})
}

// GET /prompts/categories
func (h *PromptHandler) Categories(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"categories": models.PromptCategories,
	})
}
