// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prompteconomy/backend/internal/i18n"
	"github.com/prompteconomy/backend/internal/services"
	"github.com/prompteconomy/backend/internal/utils"
)

type UserHandler struct {
	userService    *services.UserService
	storageService *services.StorageService
}

func NewUserHandler(userService *services.UserService, storageService *services.StorageService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		storageService: storageService,
	}
}

// GET /users/:id
func (h *UserHandler) PublicProfile(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	profile, err := h.userService.PublicProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"user": profile})
}

// PUT /users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserProfileUpdated),
		"user":    user,
	})
}

// POST /users/upload-avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := callerID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "avatar"), nil)
		return
	}
	defer file.Close()

	if err := h.storageService.ValidateImage(file); err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := h.storageService.UploadFile(file, header, h.storageService.GetDefaultUploadOptions("avatars"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	user, err := h.userService.UpdateAvatar(c.Request.Context(), userID, result.URL)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFileUploadSuccess),
		"user":    user,
		"upload":  result,
	})
}
