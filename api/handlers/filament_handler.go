package handlers

import (
	"net/http"

	"github.com/devadigapratham/spoolkeeper/api/models"
	"github.com/devadigapratham/spoolkeeper/filter"
	"github.com/gin-gonic/gin"
)

// createFilamentRequest tells an absent weightRemaining apart from an
// explicit 0
type createFilamentRequest struct {
	models.Filament
	WeightRemaining *models.Grams `json:"weightRemaining"`
}

// CreateFilament creates a new filament
func (h *Handler) CreateFilament(c *gin.Context) {
	var req createFilamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filament := req.Filament
	filament.WeightRemaining = filament.WeightTotal
	if req.WeightRemaining != nil {
		filament.WeightRemaining = *req.WeightRemaining
	}

	// Form defaults: diameter, clamping, tags
	filament.Normalize()
	if err := filament.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.Store.Add(filament)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetFilaments returns the filaments matching the brand, type and color
// query parameters
func (h *Handler) GetFilaments(c *gin.Context) {
	filters := models.Filters{
		Brands: c.QueryArray("brand"),
		Types:  c.QueryArray("type"),
		Colors: c.QueryArray("color"),
	}

	c.JSON(http.StatusOK, filter.Apply(h.Store.All(), filters))
}

// GetFilament returns one filament
func (h *Handler) GetFilament(c *gin.Context) {
	filament, ok := h.Store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "filament not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filament":         filament,
		"displayName":      filament.DisplayName(),
		"percentRemaining": filament.PercentRemaining(),
		"stockLevel":       filament.StockLevel(),
	})
}

// UpdateFilament merges the request body into an existing filament
func (h *Handler) UpdateFilament(c *gin.Context) {
	id := c.Param("id")

	var patch models.FilamentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch.Normalize()

	// Check if the filament exists
	current, exists := h.Store.Get(id)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "filament not found"})
		return
	}

	// Same policy as the edit form: validate the merged record and keep
	// the remaining weight within the total
	merged := patch.Apply(current)
	if err := merged.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.WeightRemaining != nil || patch.WeightTotal != nil {
		remaining := merged.WeightRemaining
		if remaining > merged.WeightTotal {
			remaining = merged.WeightTotal
		}
		patch.WeightRemaining = &remaining
	}

	updated, found, err := h.Store.Update(id, patch)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "filament not found"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteFilament removes a filament
func (h *Handler) DeleteFilament(c *gin.Context) {
	found, err := h.Store.Delete(c.Param("id"))
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "filament not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetFacets returns the values available for each filter facet
func (h *Handler) GetFacets(c *gin.Context) {
	c.JSON(http.StatusOK, filter.AvailableFacets(h.Store.All()))
}

// GetStats returns the inventory aggregates
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Stats())
}
