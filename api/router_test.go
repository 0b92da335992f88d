package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devadigapratham/spoolkeeper/api/handlers"
	"github.com/devadigapratham/spoolkeeper/api/models"
	"github.com/devadigapratham/spoolkeeper/inventory"
	"github.com/devadigapratham/spoolkeeper/storage"
)

type testServer struct {
	router *gin.Engine
	store  *inventory.Store
	h      *handlers.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	kv := storage.NewMemoryStore()
	store := inventory.New(storage.NewRecords(kv, ""), logger)
	h := handlers.NewHandler(store, &storage.Themes{KV: kv}, logger)
	h.Backend = "memory"
	h.Now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }

	return &testServer{router: SetupRouter(h, false), store: store, h: h}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func spool(brand, typ, color string) map[string]interface{} {
	return map[string]interface{}{
		"brand":       brand,
		"type":        typ,
		"colorName":   color,
		"colorHex":    "#112233",
		"weightTotal": 1000,
	}
}

func TestCreateFilament_AppliesFormDefaults(t *testing.T) {
	s := newTestServer(t)

	body := spool("Prusament", "pla", "Black")
	body["tags"] = []string{"matte", "matte", " "}
	w := s.do(t, http.MethodPost, "/api/v1/filaments", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[models.Filament](t, w)
	assert.NotEmpty(t, created.ID)
	createdAt, ok := created.CreatedAt.Time()
	require.True(t, ok)
	assert.False(t, createdAt.IsZero())
	assert.Equal(t, "PLA", created.Type)
	assert.Equal(t, models.DefaultDiameter, created.Diameter)
	assert.Equal(t, models.Grams(1000), created.WeightRemaining)
	assert.Equal(t, []string{"matte"}, created.Tags)
}

func TestCreateFilament_ClampsRemaining(t *testing.T) {
	s := newTestServer(t)

	body := spool("Prusament", "PLA", "Black")
	body["weightRemaining"] = 5000
	w := s.do(t, http.MethodPost, "/api/v1/filaments", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.Grams(1000), decode[models.Filament](t, w).WeightRemaining)
}

func TestCreateFilament_EmptySpool(t *testing.T) {
	s := newTestServer(t)

	body := spool("Prusament", "PLA", "Black")
	body["weightRemaining"] = 0
	w := s.do(t, http.MethodPost, "/api/v1/filaments", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.Grams(0), decode[models.Filament](t, w).WeightRemaining)

	body["weightRemaining"] = nil
	w = s.do(t, http.MethodPost, "/api/v1/filaments", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.Grams(1000), decode[models.Filament](t, w).WeightRemaining, "null counts as absent")

	stats := decode[models.Stats](t, s.do(t, http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, float64(1000), stats.TotalWeight)
}

func TestCreateFilament_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/filaments", spool("Prusament", "PVA", "Black"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid type")

	body := spool("Prusament", "PLA", "Black")
	body["colorHex"] = "black"
	w = s.do(t, http.MethodPost, "/api/v1/filaments", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/filaments", "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 0, s.store.Len())
}

func TestGetFilaments_Filters(t *testing.T) {
	s := newTestServer(t)
	for _, b := range []map[string]interface{}{
		spool("A", "PLA", "Black"),
		spool("B", "PETG", "White"),
		spool("A", "PETG", "White"),
	} {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/filaments", b).Code)
	}

	all := decode[[]models.Filament](t, s.do(t, http.MethodGet, "/api/v1/filaments", nil))
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0].Brand)
	assert.Equal(t, "PETG", all[0].Type, "newest first")

	onlyA := decode[[]models.Filament](t, s.do(t, http.MethodGet, "/api/v1/filaments?brand=A", nil))
	assert.Len(t, onlyA, 2)

	aWhite := decode[[]models.Filament](t, s.do(t, http.MethodGet, "/api/v1/filaments?brand=A&brand=B&color=White", nil))
	assert.Len(t, aWhite, 2)

	facets := decode[models.Facets](t, s.do(t, http.MethodGet, "/api/v1/facets", nil))
	assert.Equal(t, []string{"A", "B"}, facets.Brands)
	assert.Equal(t, []string{"PETG", "PLA"}, facets.Types)
	assert.Equal(t, []string{"Black", "White"}, facets.Colors)

	stats := decode[models.Stats](t, s.do(t, http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, models.Stats{TotalRolls: 3, TotalWeight: 3000}, stats)
}

func TestGetFilament(t *testing.T) {
	s := newTestServer(t)
	created := decode[models.Filament](t, s.do(t, http.MethodPost, "/api/v1/filaments", spool("Prusament", "PLA", "Black")))

	w := s.do(t, http.MethodGet, "/api/v1/filaments/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[map[string]interface{}](t, w)
	assert.Equal(t, "Prusament Black", detail["displayName"])
	assert.Equal(t, float64(100), detail["percentRemaining"])
	assert.Equal(t, "high", detail["stockLevel"])

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/filaments/missing", nil).Code)
}

func TestUpdateFilament(t *testing.T) {
	s := newTestServer(t)
	created := decode[models.Filament](t, s.do(t, http.MethodPost, "/api/v1/filaments", spool("Prusament", "PLA", "Black")))

	w := s.do(t, http.MethodPatch, "/api/v1/filaments/"+created.ID, map[string]interface{}{"weightRemaining": 9999, "notes": "edited"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[models.Filament](t, w)
	assert.Equal(t, models.Grams(1000), updated.WeightRemaining, "edits are clamped to the total")
	assert.Equal(t, "edited", updated.Notes)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Prusament", updated.Brand)

	w = s.do(t, http.MethodPatch, "/api/v1/filaments/"+created.ID, map[string]interface{}{"weightTotal": 500})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Grams(500), decode[models.Filament](t, w).WeightRemaining, "shrinking the total clamps remaining")

	w = s.do(t, http.MethodPatch, "/api/v1/filaments/missing", map[string]interface{}{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, "/api/v1/filaments/"+created.ID, map[string]interface{}{"type": "Wood"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateFilament_Canonicalizes(t *testing.T) {
	s := newTestServer(t)
	created := decode[models.Filament](t, s.do(t, http.MethodPost, "/api/v1/filaments", spool("Prusament", "PLA", "Black")))

	w := s.do(t, http.MethodPatch, "/api/v1/filaments/"+created.ID, map[string]interface{}{
		"type":            " pla+ ",
		"countryOfOrigin": "de",
		"tags":            []string{"silk", "silk"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[models.Filament](t, w)
	assert.Equal(t, "PLA+", updated.Type)
	assert.Equal(t, "DE", updated.CountryOfOrigin)
	assert.Equal(t, []string{"silk"}, updated.Tags)

	facets := decode[models.Facets](t, s.do(t, http.MethodGet, "/api/v1/facets", nil))
	assert.Equal(t, []string{"PLA+"}, facets.Types)
}

func TestDeleteFilament(t *testing.T) {
	s := newTestServer(t)
	created := decode[models.Filament](t, s.do(t, http.MethodPost, "/api/v1/filaments", spool("Prusament", "PLA", "Black")))

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/filaments/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/filaments/"+created.ID, nil).Code)
	assert.Equal(t, 0, s.store.Len())
}

func TestExportImport(t *testing.T) {
	s := newTestServer(t)
	for _, b := range []map[string]interface{}{spool("A", "PLA", "Black"), spool("B", "ABS", "Red")} {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/filaments", b).Code)
	}
	before := s.store.All()

	w := s.do(t, http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="filament-inventory-2026-10-17.json"`, w.Header().Get("Content-Disposition"))
	exported := w.Body.String()

	other := newTestServer(t)

	w = other.do(t, http.MethodPost, "/api/v1/import", exported)
	require.Equal(t, http.StatusConflict, w.Code)
	pending := decode[map[string]interface{}](t, w)
	assert.Equal(t, float64(2), pending["count"])
	assert.Equal(t, "This will import 2 filament(s). Current data will be replaced. Continue?", pending["message"])
	assert.Equal(t, 0, other.store.Len())

	w = other.do(t, http.MethodPost, "/api/v1/import?confirm=3", exported)
	require.Equal(t, http.StatusConflict, w.Code, "a mismatched count is not a confirmation")

	w = other.do(t, http.MethodPost, "/api/v1/import?confirm=2", exported)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, before, other.store.All())
}

func TestImport_FormatError(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/filaments", spool("A", "PLA", "Black")).Code)

	w := s.do(t, http.MethodPost, "/api/v1/import?confirm=1", `{"id":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, s.store.Len())

	w = s.do(t, http.MethodPost, "/api/v1/import?confirm=many", `[]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTheme(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/settings/theme", nil)
	assert.JSONEq(t, `{"theme":"dark"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/settings/theme/toggle", nil)
	assert.JSONEq(t, `{"theme":"light"}`, w.Body.String())

	w = s.do(t, http.MethodPut, "/api/v1/settings/theme", map[string]string{"theme": "sepia"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/settings/theme", map[string]string{"theme": "dark"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/settings/theme", nil)
	assert.JSONEq(t, `{"theme":"dark"}`, w.Body.String())
}

func TestReadyMiddleware(t *testing.T) {
	s := newTestServer(t)
	s.h.Ready = func() bool { return false }

	w := s.do(t, http.MethodPost, "/api/v1/filaments", spool("A", "PLA", "Black"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/filaments", nil)
	assert.Equal(t, http.StatusOK, w.Code, "reads are always served")

	status := decode[map[string]interface{}](t, s.do(t, http.MethodGet, "/status", nil))
	assert.Equal(t, false, status["ready"])
	assert.Equal(t, "memory", status["backend"])
}
