package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/devadigapratham/spoolkeeper/api/models"
	"github.com/devadigapratham/spoolkeeper/transfer"
	"github.com/gin-gonic/gin"
)

// Export downloads the whole collection as a dated JSON file
func (h *Handler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := transfer.Export(&buf, h.Store.All()); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export data"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, transfer.Filename(h.Now())))
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// Import replaces the collection with the request body. The caller must
// confirm by passing ?confirm=<count> with the number of incoming records;
// without it the server answers 409 with the count to confirm.
func (h *Handler) Import(c *gin.Context) {
	confirmed := -1
	if raw := c.Query("confirm"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "confirm must be the number of records"})
			return
		}
		confirmed = n
	}

	var pending int
	count, err := transfer.Import(h.Store, c.Request.Body, func(n int) bool {
		pending = n
		return n == confirmed
	})

	var formatErr *transfer.FormatError
	switch {
	case errors.As(err, &formatErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to import data. Please check the file format."})
		return
	case errors.Is(err, transfer.ErrImportDeclined):
		c.JSON(http.StatusConflict, gin.H{
			"count":   pending,
			"message": transfer.ConfirmMessage(pending),
		})
		return
	case err != nil:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Logger.WithField("records", count).Info("Inventory imported")
	c.JSON(http.StatusOK, gin.H{"imported": count})
}

// GetTheme returns the display theme
func (h *Handler) GetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": h.Themes.Get()})
}

// SetTheme stores the display theme
func (h *Handler) SetTheme(c *gin.Context) {
	var req struct {
		Theme string `json:"theme" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.IsValidTheme(req.Theme) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "theme must be light or dark"})
		return
	}

	if err := h.Themes.Set(models.Theme(req.Theme)); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}

// ToggleTheme flips the display theme
func (h *Handler) ToggleTheme(c *gin.Context) {
	theme, err := h.Themes.Toggle()
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}
