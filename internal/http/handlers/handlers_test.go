package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/civicdesk/backend/internal/cache"
	"github.com/civicdesk/backend/internal/dashboard"
)

func TestDashboardPressure(t *testing.T) {
	h := &Handler{
		Grid:   dashboard.NewPressureGrid(time.Second),
		Cache:  &cache.SummaryCache{},
		Logger: zerolog.Nop(),
	}

	r := gin.New()
	r.GET("/api/dashboard/pressure", h.DashboardPressure)

	req, _ := http.NewRequest(http.MethodGet, "/api/dashboard/pressure", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Active   []int `json:"active"`
		GridSize int   `json:"grid_size"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.GridSize != 100 {
		t.Fatalf("expected grid_size 100, got %d", body.GridSize)
	}
	if len(body.Active) < 4 || len(body.Active) > 8 {
		t.Fatalf("active set size %d outside [4,8]", len(body.Active))
	}
}

func TestRolesList(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop()}

	r := gin.New()
	r.GET("/api/roles", h.RolesList)

	req, _ := http.NewRequest(http.MethodGet, "/api/roles?selected=citizen", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req, _ = http.NewRequest(http.MethodGet, "/api/roles?selected=nope", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", w.Code)
	}
}
