package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheStub struct {
	manifests map[string]*Manifest
	getErr    error
	saves     int
}

func (c *cacheStub) Get(ctx context.Context, date string) (*Manifest, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	m, ok := c.manifests[date]
	if !ok {
		return nil, ErrManifestNotFound
	}
	return m, nil
}

func (c *cacheStub) Save(ctx context.Context, m *Manifest) error {
	if c.manifests == nil {
		c.manifests = map[string]*Manifest{}
	}
	c.manifests[m.Date] = m
	c.saves++
	return nil
}

func setupManifestRouter(cache ManifestCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(newTestBuilder(&listerStub{subs: fixtureSubs()}), cache)
	r := gin.New()
	r.GET("/admin/manifests/:date", h.GetManifest)
	return r
}

func getManifest(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, Manifest) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))

	var m Manifest
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	}
	return w, m
}

func TestGetManifest_BuildsOnMiss(t *testing.T) {
	cache := &cacheStub{}
	r := setupManifestRouter(cache)

	w, m := getManifest(t, r, "/admin/manifests/2024-07-17")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, m.Count)
	assert.Equal(t, 1, cache.saves)
}

func TestGetManifest_ServesCache(t *testing.T) {
	cache := &cacheStub{manifests: map[string]*Manifest{
		"2024-07-17": {Date: "2024-07-17", Count: 42, GeneratedAt: at(2024, time.July, 16, 19), Deliveries: []Entry{}},
	}}
	r := setupManifestRouter(cache)

	w, m := getManifest(t, r, "/admin/manifests/2024-07-17")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 42, m.Count)
	assert.Equal(t, 0, cache.saves)

	w, m = getManifest(t, r, "/admin/manifests/2024-07-17?refresh=true")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, m.Count)
	assert.Equal(t, 1, cache.saves)
}

func TestGetManifest_CacheFailureFallsBack(t *testing.T) {
	cache := &cacheStub{getErr: assert.AnError}
	r := setupManifestRouter(cache)

	w, m := getManifest(t, r, "/admin/manifests/2024-07-18")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, m.Count)
}

func TestGetManifest_BadDate(t *testing.T) {
	r := setupManifestRouter(&cacheStub{})

	w, _ := getManifest(t, r, "/admin/manifests/17-07-2024")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
