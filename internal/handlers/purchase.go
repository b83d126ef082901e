// internal/handlers/purchase.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prompteconomy/backend/internal/i18n"
	"github.com/prompteconomy/backend/internal/services"
	"github.com/prompteconomy/backend/internal/utils"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// POST /purchases
func (h *PurchaseHandler) Initiate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := callerID(c)
	if !ok {
		return
	}
	wallet, _ := utils.GetWalletFromContext(c)

	var req services.InitiatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	purchase, err := h.purchaseService.Initiate(c.Request.Context(), userID, wallet, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyPurchaseInitiated),
		"purchase": purchase,
	})
}

// POST /purchases/:id/verify
func (h *PurchaseHandler) Verify(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := callerID(c)
	if !ok {
		return
	}
	purchaseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	purchase, err := h.purchaseService.Verify(c.Request.Context(), userID, purchaseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyPurchaseCompleted),
		"purchase": purchase,
	})
}

// GET /purchases/:id
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	purchaseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	purchase, err := h.purchaseService.GetByID(c.Request.Context(), userID, purchaseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"purchase": purchase})
}

// GET /purchases/my
func (h *PurchaseHandler) MyPurchases(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	purchases, total, err := h.purchaseService.ListByBuyer(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(purchases, total, params))
}

// GET /purchases/access/:promptId
func (h *PurchaseHandler) CheckAccess(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	promptID, ok := pathUUID(c, "promptId")
	if !ok {
		return
	}

	hasAccess, err := h.purchaseService.CheckAccess(c.Request.Context(), userID, promptID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"has_access": hasAccess})
}

// POST /purchases/:id/review
func (h *PurchaseHandler) Review(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := callerID(c)
	if !ok {
		return
	}
	purchaseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	purchase, err := h.purchaseService.AddReview(c.Request.Context(), userID, purchaseID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"purchase": purchase})
}

// GET /prompts/:id/buyers
func (h *PurchaseHandler) Buyers(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	promptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	purchases, total, err := h.purchaseService.ListPurchasers(c.Request.Context(), userID, promptID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(purchases, total, params))
}

// GET /earnings
func (h *PurchaseHandler) Earnings(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	report, err := h.purchaseService.Earnings(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"earnings": report})
}
