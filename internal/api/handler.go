package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avelar/feedlight/internal/feed"
	"github.com/avelar/feedlight/internal/normalize"
	"github.com/avelar/feedlight/internal/source"
	"github.com/avelar/feedlight/pkg/types"
)

// Handler exposes the feed engine over HTTP.
type Handler struct {
	coord      *feed.Coordinator
	src        source.Source
	engagement source.EngagementRecorder
	logger     *slog.Logger
}

func NewHandler(coord *feed.Coordinator, src source.Source, engagement source.EngagementRecorder, logger *slog.Logger) *Handler {
	return &Handler{coord: coord, src: src, engagement: engagement, logger: logger}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.Health)

	v1 := r.Group("/v1")
	{
		v1.GET("/feed/search", h.Search)
		v1.GET("/feed/section", h.Section)
		v1.GET("/feed/top", h.Top)
		v1.POST("/feed/browse", h.StartBrowse)
		v1.GET("/feed/browse", h.Browse)
		v1.POST("/feed/browse/next", h.NextBatch)

		v1.POST("/content/ingest", h.Ingest)
		v1.POST("/content/:id/like", h.Like)
		v1.POST("/content/:id/view", h.View)
		v1.POST("/content/:id/comment", h.Comment)
		v1.POST("/content/:id/rate", h.Rate)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Search: GET /v1/feed/search?q=...
//
// Search is best-effort: a backend failure degrades to an empty result set
// rather than an error status.
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	res := h.coord.Search(c.Request.Context(), q)
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{
			"query":    q,
			"count":    len(res.Primary),
			"fallback": res.Fallback,
		},
		"data": gin.H{
			"primary": res.Primary,
			"related": res.Related,
		},
	})
}

// Section: GET /v1/feed/section?category=...&tag=...&sort=...
//
// Returns the fast-phase snapshot immediately; the full phase continues in
// the background and later calls observe it.
func (h *Handler) Section(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing category parameter"})
		return
	}
	sort, err := types.ParseSortKey(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := types.SectionKey{Category: category, Tag: c.Query("tag"), Sort: sort}
	snap := h.coord.LoadSection(c.Request.Context(), key)
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{
			"section": key.String(),
			"phase":   snap.Phase.String(),
			"count":   len(snap.Items),
			"loading": snap.Loading,
		},
		"data": snap.Items,
	})
}

// Top: GET /v1/feed/top?sort=likes&category=...&limit=10
//
// Reads the precomputed per-sort ordering straight from the backend,
// bypassing section state.
func (h *Handler) Top(c *gin.Context) {
	sort, err := types.ParseSortKey(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := parseLimit(c.DefaultQuery("limit", "10"))

	rows, err := h.src.TopBySort(c.Request.Context(), sort, c.Query("category"), limit)
	if err != nil {
		h.logger.Error("top fetch failed", "sort", string(sort), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	records := normalize.Records(rows)
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{
			"sort":  string(sort),
			"count": len(records),
			"limit": limit,
		},
		"data": records,
	})
}

// StartBrowse: POST /v1/feed/browse
func (h *Handler) StartBrowse(c *gin.Context) {
	h.browseResponse(c, h.coord.StartBrowse(c.Request.Context()))
}

// Browse: GET /v1/feed/browse
func (h *Handler) Browse(c *gin.Context) {
	h.browseResponse(c, h.coord.Browse())
}

// NextBatch: POST /v1/feed/browse/next
func (h *Handler) NextBatch(c *gin.Context) {
	h.browseResponse(c, h.coord.LoadNextBatch(c.Request.Context()))
}

func (h *Handler) browseResponse(c *gin.Context, view feed.BrowseView) {
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{
			"sections": len(view.Sections),
			"has_more": view.HasMore,
			"loading":  view.Loading,
		},
		"data": view.Sections,
	})
}

// Ingest: POST /v1/content/ingest
// Body: JSON array of content records
func (h *Handler) Ingest(c *gin.Context) {
	var payload []types.ContentRecord
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if err := h.src.SaveMany(c.Request.Context(), payload); err != nil {
		h.logger.Error("ingest failed", "count", len(payload), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"meta": gin.H{"imported": len(payload)},
	})
}

// Like: POST /v1/content/:id/like?user=...
func (h *Handler) Like(c *gin.Context) {
	id := c.Param("id")
	user := c.Query("user")
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user parameter"})
		return
	}
	if err := h.engagement.Like(c.Request.Context(), id, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meta": gin.H{"id": id}})
}

// View: POST /v1/content/:id/view
func (h *Handler) View(c *gin.Context) {
	id := c.Param("id")
	if err := h.engagement.View(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meta": gin.H{"id": id}})
}

// Comment: POST /v1/content/:id/comment
// Body: {"body": "..."}
func (h *Handler) Comment(c *gin.Context) {
	id := c.Param("id")
	var payload struct {
		Body string `json:"body"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if payload.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing comment body"})
		return
	}
	if err := h.engagement.Comment(c.Request.Context(), id, payload.Body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meta": gin.H{"id": id}})
}

// Rate: POST /v1/content/:id/rate
// Body: {"value": 4.5}
func (h *Handler) Rate(c *gin.Context) {
	id := c.Param("id")
	var payload struct {
		Value float64 `json:"value"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if payload.Value < 0 || payload.Value > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 0 and 5"})
		return
	}
	if err := h.engagement.Rate(c.Request.Context(), id, payload.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meta": gin.H{"id": id}})
}

// parseLimit ensures a sane integer limit, with bounds
func parseLimit(s string) int {
	l, err := strconv.Atoi(s)
	if err != nil || l <= 0 {
		return 10
	}
	if l > 200 {
		return 200
	}
	return l
}
