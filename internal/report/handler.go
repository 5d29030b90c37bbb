package report

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anishchandragiri369/studio-sub001/internal/api"
	"github.com/anishchandragiri369/studio-sub001/internal/logger"
)

type ManifestCache interface {
	ManifestSaver
	Get(ctx context.Context, date string) (*Manifest, error)
}

type Handler struct {
	builder *Builder
	cache   ManifestCache
}

func NewHandler(builder *Builder, cache ManifestCache) *Handler {
	return &Handler{builder: builder, cache: cache}
}

// GetManifest serves the cached manifest for a day, building and caching it
// on a miss. ?refresh=true forces a rebuild.
func (h *Handler) GetManifest(c *gin.Context) {
	day, err := time.ParseInLocation(DateLayout, c.Param("date"), h.builder.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "date must be formatted as YYYY-MM-DD"})
		return
	}
	date := day.Format(DateLayout)
	ctx := c.Request.Context()

	if c.Query("refresh") != "true" {
		m, err := h.cache.Get(ctx, date)
		if err == nil {
			c.JSON(http.StatusOK, m)
			return
		}
		if !errors.Is(err, ErrManifestNotFound) {
			logger.WithError(err).Warn("Manifest cache read failed", "date", date)
		}
	}

	m, err := h.builder.Build(ctx, day)
	if err != nil {
		logger.WithError(err).Error("Failed to build manifest", "date", date)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to build manifest"})
		return
	}
	if err := h.cache.Save(ctx, m); err != nil {
		logger.WithError(err).Warn("Failed to cache manifest", "date", date)
	}

	c.JSON(http.StatusOK, m)
}
