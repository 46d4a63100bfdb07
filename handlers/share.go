package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/hamzab/drivebox-backend/auth/middleware"
	"github.com/hamzab/drivebox-backend/models"
	"github.com/hamzab/drivebox-backend/services"
)

type createShareRequest struct {
	ResourceType  models.ResourceType `json:"resourceType" binding:"required"`
	ResourceID    uuid.UUID           `json:"resourceId" binding:"required"`
	ExpiresAt     *time.Time          `json:"expiresAt"`
	Password      string              `json:"password"`
	AllowDownload *bool               `json:"allowDownload"`
}

func (h *Handler) CreateShare(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	var body createShareRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	allowDownload := true
	if body.AllowDownload != nil {
		allowDownload = *body.AllowDownload
	}

	link, err := h.Shares.CreateLink(c.Request.Context(), userID, body.ResourceType, body.ResourceID,
		body.ExpiresAt, body.Password, allowDownload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link, "url": "/s/" + link.ID})
}

func (h *Handler) ListShares(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	links, err := h.Shares.ListLinks(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}

func (h *Handler) RevokeShare(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	if err := h.Shares.RevokeLink(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ShareQR renders the share URL as a QR PNG for the link's creator.
func (h *Handler) ShareQR(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	link, err := h.Shares.GetOwnedLink(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	shareURL := fmt.Sprintf("%s://%s/s/%s", scheme(c), c.Request.Host, link.ID)
	png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ResolveShare is the public share surface: GET /s/:linkId. An optional
// password comes as a query or form value.
func (h *Handler) ResolveShare(c *gin.Context) {
	password := c.Query("password")
	if password == "" {
		password = c.PostForm("password")
	}

	resolved, err := h.Shares.ResolveLink(c.Request.Context(), c.Param("linkId"), password)
	if err != nil {
		respondError(c, err)
		return
	}

	if resolved.File != nil {
		if resolved.Link.AllowDownload && c.Query("download") == "1" {
			h.serveSharedFile(c, resolved)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"type":          "file",
			"name":          resolved.File.OriginalName,
			"size":          resolved.File.FileSize,
			"contentType":   resolved.File.ContentType,
			"allowDownload": resolved.Link.AllowDownload,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"type":          "folder",
		"name":          resolved.Folder.Name,
		"allowDownload": resolved.Link.AllowDownload,
	})
}

func (h *Handler) serveSharedFile(c *gin.Context, resolved *services.ResolvedShare) {
	handle, err := h.Store.IssueGetAccess(c.Request.Context(), resolved.File.StorageKey)
	if err != nil {
		respondError(c, err)
		return
	}
	if !handle.Direct {
		c.Redirect(http.StatusFound, handle.URL)
		return
	}

	body, size, err := h.Store.Get(c.Request.Context(), resolved.File.StorageKey)
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resolved.File.OriginalName))
	c.DataFromReader(http.StatusOK, size, resolved.File.ContentType, body, nil)
}

func scheme(c *gin.Context) string {
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
