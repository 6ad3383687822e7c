package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelar/feedlight/internal/cache"
	"github.com/avelar/feedlight/internal/feed"
	"github.com/avelar/feedlight/internal/source"
	"github.com/avelar/feedlight/pkg/types"
)

type stubSource struct {
	rows       []source.Row
	categories []string
	saved      []types.ContentRecord
	failAll    bool

	likes    []string
	views    []string
	comments []string
	ratings  []float64
}

func (s *stubSource) err() error {
	if s.failAll {
		return errors.New("backend down")
	}
	return nil
}

func (s *stubSource) FetchLight(ctx context.Context, q source.LightQuery) ([]source.Row, error) {
	return s.rows, s.err()
}

func (s *stubSource) FetchAggregate(ctx context.Context, q source.AggregateQuery) ([]source.Row, error) {
	return s.rows, s.err()
}

func (s *stubSource) TopBySort(ctx context.Context, sort types.SortKey, category string, limit int) ([]source.Row, error) {
	return s.rows, s.err()
}

func (s *stubSource) Categories(ctx context.Context) ([]string, error) {
	return s.categories, s.err()
}

func (s *stubSource) SaveMany(ctx context.Context, records []types.ContentRecord) error {
	s.saved = append(s.saved, records...)
	return s.err()
}

func (s *stubSource) Close() error { return nil }

func (s *stubSource) Like(ctx context.Context, contentID, userID string) error {
	s.likes = append(s.likes, contentID+"/"+userID)
	return s.err()
}

func (s *stubSource) View(ctx context.Context, contentID string) error {
	s.views = append(s.views, contentID)
	return s.err()
}

func (s *stubSource) Comment(ctx context.Context, contentID, body string) error {
	s.comments = append(s.comments, contentID+": "+body)
	return s.err()
}

func (s *stubSource) Rate(ctx context.Context, contentID string, value float64) error {
	s.ratings = append(s.ratings, value)
	return s.err()
}

func newTestRouter(t *testing.T, src *stubSource) (*gin.Engine, *feed.Coordinator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := feed.New(src, cache.NewLRU(cache.DefaultLRUSize), logger, feed.Config{
		MinLoadDuration: -1,
	})
	t.Cleanup(coord.Close)

	r := gin.New()
	RegisterRoutes(r, NewHandler(coord, src, src, logger))
	return r, coord
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, &stubSource{})
	w := doRequest(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSection(t *testing.T) {
	src := &stubSource{rows: []source.Row{
		{"id": "a", "title": "Alpha", "category": "Business"},
	}}
	r, _ := newTestRouter(t, src)

	w := doRequest(r, http.MethodGet, "/v1/feed/section?category=Business", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	meta := env["meta"].(map[string]any)
	assert.Equal(t, `section(category="Business" tag="" sort=newest)`, meta["section"])
	assert.Equal(t, float64(1), meta["count"])
}

func TestSection_MissingCategory(t *testing.T) {
	r, _ := newTestRouter(t, &stubSource{})
	w := doRequest(r, http.MethodGet, "/v1/feed/section", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSection_UnknownSort(t *testing.T) {
	r, _ := newTestRouter(t, &stubSource{})
	w := doRequest(r, http.MethodGet, "/v1/feed/section?category=Business&sort=sideways", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch(t *testing.T) {
	src := &stubSource{rows: []source.Row{
		{"id": "a", "title": "Growth Hacking Weekly"},
		{"id": "b", "title": "Sourdough Basics"},
	}}
	r, _ := newTestRouter(t, src)

	w := doRequest(r, http.MethodGet, "/v1/feed/search?q=growth", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	meta := env["meta"].(map[string]any)
	assert.Equal(t, "growth", meta["query"])
	assert.Equal(t, float64(1), meta["count"])
	assert.Equal(t, false, meta["fallback"])
}

// A backend failure never turns into an error status; search degrades to an
// empty result set.
func TestSearch_BackendFailureDegrades(t *testing.T) {
	r, _ := newTestRouter(t, &stubSource{failAll: true})
	w := doRequest(r, http.MethodGet, "/v1/feed/search?q=growth", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	meta := env["meta"].(map[string]any)
	assert.Equal(t, float64(0), meta["count"])
}

func TestTop(t *testing.T) {
	src := &stubSource{rows: []source.Row{
		{"id": "a", "title": "Alpha", "likes_count": 9},
	}}
	r, _ := newTestRouter(t, src)

	w := doRequest(r, http.MethodGet, "/v1/feed/top?sort=likes&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	meta := env["meta"].(map[string]any)
	assert.Equal(t, "likes", meta["sort"])
	assert.Equal(t, float64(5), meta["limit"])
}

func TestBrowseFlow(t *testing.T) {
	src := &stubSource{
		rows:       []source.Row{{"id": "a", "title": "Alpha"}},
		categories: []string{"Business", "Cooking", "Finance"},
	}
	r, _ := newTestRouter(t, src)

	w := doRequest(r, http.MethodPost, "/v1/feed/browse", "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	meta := env["meta"].(map[string]any)
	assert.Equal(t, float64(3), meta["sections"])
	assert.Equal(t, false, meta["has_more"])

	w = doRequest(r, http.MethodGet, "/v1/feed/browse", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/v1/feed/browse/next", "")
	require.Equal(t, http.StatusOK, w.Code)
}

// Browse start degrades the same way when the category fetch fails.
func TestBrowse_BackendFailureDegrades(t *testing.T) {
	r, _ := newTestRouter(t, &stubSource{failAll: true})
	w := doRequest(r, http.MethodPost, "/v1/feed/browse", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	meta := env["meta"].(map[string]any)
	assert.Equal(t, float64(0), meta["sections"])
	assert.Equal(t, false, meta["has_more"])
}

func TestIngest(t *testing.T) {
	src := &stubSource{}
	r, _ := newTestRouter(t, src)

	body := `[{"id":"a","title":"Alpha","created_at":"` + time.Now().Format(time.RFC3339) + `"}]`
	w := doRequest(r, http.MethodPost, "/v1/content/ingest", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, src.saved, 1)
}

func TestIngest_BadJSON(t *testing.T) {
	r, _ := newTestRouter(t, &stubSource{})
	w := doRequest(r, http.MethodPost, "/v1/content/ingest", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEngagement(t *testing.T) {
	src := &stubSource{}
	r, _ := newTestRouter(t, src)

	w := doRequest(r, http.MethodPost, "/v1/content/a/like?user=u1", "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"a/u1"}, src.likes)

	w = doRequest(r, http.MethodPost, "/v1/content/a/like", "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing user")

	w = doRequest(r, http.MethodPost, "/v1/content/a/view", "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodPost, "/v1/content/a/comment", `{"body":"nice"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"a: nice"}, src.comments)

	w = doRequest(r, http.MethodPost, "/v1/content/a/comment", `{"body":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/v1/content/a/rate", `{"value":4.5}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []float64{4.5}, src.ratings)

	w = doRequest(r, http.MethodPost, "/v1/content/a/rate", `{"value":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 10, parseLimit("nope"))
	assert.Equal(t, 10, parseLimit("0"))
	assert.Equal(t, 10, parseLimit("-3"))
	assert.Equal(t, 25, parseLimit("25"))
	assert.Equal(t, 200, parseLimit("9000"))
}
