package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *UserHandler) getCurrentUser(c *gin.Context) {
	user, ok := h.mustCurrentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) updateAccount(c *gin.Context) {
	user, ok := h.mustCurrentUser(c)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.profileService.UpdateAccount(c.Request.Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}

func (h *UserHandler) updateAvatar(c *gin.Context) {
	h.updateMediaField(c, "avatar")
}

func (h *UserHandler) updateCoverImage(c *gin.Context) {
	h.updateMediaField(c, "coverImage")
}

// updateMediaField handles the shared single-file replace flow for avatar and
// cover image.
func (h *UserHandler) updateMediaField(c *gin.Context, field string) {
	user, ok := h.mustCurrentUser(c)
	if !ok {
		return
	}

	file, err := c.FormFile(field)
	if err != nil {
		abortBadRequest(c, field+" file is required")
		return
	}

	url, err := h.stageAndUpload(c, file, field)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	var updated any
	if field == "avatar" {
		updated, err = h.profileService.UpdateAvatar(c.Request.Context(), user.ID, url)
	} else {
		updated, err = h.profileService.UpdateCoverImage(c.Request.Context(), user.ID, url)
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}

func (h *UserHandler) getChannelProfile(c *gin.Context) {
	user, ok := h.mustCurrentUser(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetChannelProfile(c.Request.Context(), c.Param("username"), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"channel": profile})
}

func (h *UserHandler) toggleSubscription(c *gin.Context) {
	user, ok := h.mustCurrentUser(c)
	if !ok {
		return
	}

	subscribed, err := h.profileService.ToggleSubscription(c.Request.Context(), user.ID, c.Param("username"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribed": subscribed})
}

func (h *UserHandler) getWatchHistory(c *gin.Context) {
	user, ok := h.mustCurrentUser(c)
	if !ok {
		return
	}

	entries, err := h.profileService.WatchHistory(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"watchHistory": entries})
}

func (h *UserHandler) recordWatchEvent(c *gin.Context) {
	user, ok := h.mustCurrentUser(c)
	if !ok {
		return
	}

	var req recordWatchEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		abortBadRequest(c, "videoId must be a valid UUID")
		return
	}

	if err := h.profileService.RecordWatchEvent(c.Request.Context(), user.ID, videoID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Watch event recorded"})
}
