package handlers

import (
	"net/http"
	"time"

	"github.com/devadigapratham/spoolkeeper/inventory"
	"github.com/devadigapratham/spoolkeeper/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler represents the API handlers
type Handler struct {
	Store   *inventory.Store
	Themes  *storage.Themes
	Logger  *logrus.Logger
	Backend string

	// Ready reports whether the storage backend accepts writes
	Ready func() bool
	// Now is the clock used for export file names
	Now func() time.Time
}

// NewHandler creates a new Handler
func NewHandler(store *inventory.Store, themes *storage.Themes, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		Store:  store,
		Themes: themes,
		Logger: logger,
		Ready:  func() bool { return true },
		Now:    time.Now,
	}
}

// ReadyMiddleware rejects writes while the storage backend is not ready
func (h *Handler) ReadyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only apply to write operations
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			if !h.Ready() {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error":   "storage not ready",
					"backend": h.Backend,
				})
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// LoggerMiddleware logs every request through logrus
func (h *Handler) LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := h.Logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("Request failed")
			return
		}
		entry.Debug("Request served")
	}
}

// Status reports the backend and collection size
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"backend": h.Backend,
		"ready":   h.Ready(),
		"records": h.Store.Len(),
	})
}
