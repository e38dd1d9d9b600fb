package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fileshare-service/internal/model/share"
	"fileshare-service/internal/service/shareService"
	"fileshare-service/pkg/middleware"
)

type ShareHandler struct {
	shares *shareService.ShareService
	// baseURL is the frontend origin used to build share URLs.
	baseURL string
}

func NewShareHandler(shares *shareService.ShareService, baseURL string) *ShareHandler {
	return &ShareHandler{shares: shares, baseURL: baseURL}
}

type shareWithUsersRequest struct {
	FileID    uuid.UUID  `json:"file_id" binding:"required"`
	UserIDs   []uint32   `json:"user_ids" binding:"required"`
	Role      share.Role `json:"role"`
	ExpiresIn int        `json:"expires_in"`
}

func (h *ShareHandler) ShareWithUsers(c *gin.Context) {
	var req shareWithUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "File ID and user IDs are required"})
		return
	}

	shares, err := h.shares.ShareWithUsers(c.Request.Context(), req.FileID, middleware.UserID(c), req.UserIDs, req.Role, req.ExpiresIn)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "file shared successfully",
		"shares":  shares,
	})
}

type linkShareRequest struct {
	FileID    uuid.UUID  `json:"file_id" binding:"required"`
	Role      share.Role `json:"role"`
	ExpiresIn int        `json:"expires_in"`
}

func (h *ShareHandler) CreateOrUpdateLink(c *gin.Context) {
	var req linkShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "File ID is required"})
		return
	}

	s, err := h.shares.CreateOrUpdateLink(c.Request.Context(), req.FileID, middleware.UserID(c), req.Role, req.ExpiresIn)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "share link saved successfully",
		"share":    s,
		"shareUrl": fmt.Sprintf("%s/shared/%s", h.baseURL, s.Token),
	})
}

func (h *ShareHandler) ResolveLink(c *gin.Context) {
	f, s, err := h.shares.ResolveLink(c.Request.Context(), c.Param("token"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"file": f,
		"share": gin.H{
			"role":       s.Role,
			"expires_at": s.ExpiresAt,
			"share_type": s.Kind,
		},
	})
}

func (h *ShareHandler) ListForFile(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid file id"})
		return
	}
	shares, err := h.shares.ListForFile(c.Request.Context(), fileID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shares": shares})
}

func (h *ShareHandler) AuditLog(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid file id"})
		return
	}
	logs, err := h.shares.AuditLog(c.Request.Context(), fileID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *ShareHandler) Revoke(c *gin.Context) {
	shareID, err := uuid.Parse(c.Param("shareId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid share id"})
		return
	}
	if err := h.shares.Revoke(c.Request.Context(), shareID, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "share revoked successfully"})
}

func (h *ShareHandler) RemoveRecipient(c *gin.Context) {
	shareID, err := uuid.Parse(c.Param("shareId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid share id"})
		return
	}
	recipientID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}
	if err := h.shares.RemoveRecipient(c.Request.Context(), shareID, middleware.UserID(c), uint32(recipientID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user removed from share"})
}
