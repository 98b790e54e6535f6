package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/config"
	"battery-dispatch/internal/data"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoPeriodSolve = `{
  "config": {
    "battery": {"max_soc_kwh": 10, "efficiency": 1, "max_energy_kwh": 5},
    "market": {"max_grid_supply_kwh": 5, "unmet_demand_penalty": 1000},
    "solver": {"soc_states": 3, "actions": 3, "discount": 1}
  },
  "series": {"price": [1, -1], "demand": [0, 0]},
  "options": {"include_ledger": true, "include_tables": true}
}`

func newTestRouter(t *testing.T) (*gin.Engine, *data.RunStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small_home.yaml"), []byte(`
battery:
  name: Small home
  max_soc_kwh: 10
  efficiency: 1
  max_energy_kwh: 5
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	store := data.NewRunStore(time.Hour)
	settings := &config.Server{
		BatteryDir: dir,
		Workers:    2,
		MaxPeriods: 48,
		MaxCells:   1_000_000,
	}
	return NewRouter(settings, store, nil), store
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSolveAndLedger(t *testing.T) {
	router, store := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/solve", twoPeriodSolve)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SolveResponse](t, w)

	require.NotEmpty(t, resp.ID)
	assert.False(t, resp.Reused)
	assert.Equal(t, "oracle", resp.Summary.Strategy)
	assert.InDelta(t, 10.0, resp.Summary.MarketProfit, 1e-9)
	// Default pre-purchase: 5 kWh at 0.3 per period.
	assert.InDelta(t, 3.0, resp.Summary.PrePurchaseCost, 1e-9)
	assert.InDelta(t, 7.0, resp.Summary.TotalProfit, 1e-9)
	assert.Equal(t, 0, resp.InfeasibleStates)

	require.Len(t, resp.Ledger, 2)
	assert.Equal(t, "DISCHARGING", resp.Ledger[0].Action)
	assert.Equal(t, "CHARGING", resp.Ledger[1].Action)

	require.NotNil(t, resp.Tables)
	assert.Equal(t, []float64{0, 5, 10}, resp.Tables.SOCGrid)
	assert.Equal(t, []float64{-5, 0, 5}, resp.Tables.ActionGrid)
	assert.Equal(t, [][]int{{2, 2, 1}, {1, 0, 0}}, resp.Tables.Policy)
	require.Len(t, resp.Tables.Value, 3)
	for _, v := range resp.Tables.Value[2] {
		require.NotNil(t, v)
		assert.Equal(t, 0.0, *v)
	}

	again := decode[models.SolveResponse](t, do(t, router, http.MethodPost, "/api/v1/solve", twoPeriodSolve))
	assert.True(t, again.Reused)
	assert.Equal(t, resp.ID, again.ID)
	assert.Equal(t, 1, store.Len())

	// Only the initial SOC differs: the stored solution is replayed, not re-solved.
	fromFull := strings.Replace(twoPeriodSolve, `"include_tables": true`, `"include_tables": true, "initial_soc_kwh": 10`, 1)
	w = do(t, router, http.MethodPost, "/api/v1/solve", fromFull)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	replayed := decode[models.SolveResponse](t, w)
	assert.True(t, replayed.Reused)
	assert.NotEqual(t, resp.ID, replayed.ID)
	assert.Equal(t, 2, store.Len())
	assert.InDelta(t, 5.0, replayed.Summary.MarketProfit, 1e-9)
	require.Len(t, replayed.Ledger, 2)
	assert.Equal(t, 10.0, replayed.Ledger[0].SOCStart)
	assert.Equal(t, resp.Tables.Policy, replayed.Tables.Policy)

	w = do(t, router, http.MethodGet, "/api/v1/runs/"+resp.ID+"/ledger", "")
	require.Equal(t, http.StatusOK, w.Code)
	ledger := decode[models.LedgerResponse](t, w)
	assert.Equal(t, resp.ID, ledger.ID)
	assert.Len(t, ledger.Ledger, 2)

	w = do(t, router, http.MethodGet, "/api/v1/runs/"+resp.ID+"/ledger?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	w = do(t, router, http.MethodGet, "/api/v1/runs/nope/ledger", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RUN_NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestSolveGeneratesScenario(t *testing.T) {
	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodPost, "/api/v1/solve", `{"config": {"solver": {"soc_states": 21, "actions": 7}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SolveResponse](t, w)
	assert.Equal(t, 24, resp.Summary.Periods)
	assert.Nil(t, resp.Ledger)
	assert.Nil(t, resp.Tables)
}

func TestSolveErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"config": `, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad battery", `{"config": {"battery": {"min_soc_kwh": 20, "max_soc_kwh": 10}}}`, http.StatusBadRequest, "INVALID_CONFIG"},
		{"unknown strategy", `{"config": {"strategy": {"name": "greedy"}}}`, http.StatusBadRequest, "INVALID_CONFIG"},
		{"escaping preset", `{"config": {"battery_file": "../secrets"}}`, http.StatusBadRequest, "INVALID_CONFIG"},
		{"missing preset", `{"config": {"battery_file": "huge"}}`, http.StatusBadRequest, "INVALID_CONFIG"},
		{"short series", `{"config": {"market": {"horizon": 3}}, "series": {"price": [1, 2], "demand": [0, 0]}}`, http.StatusBadRequest, "INVALID_SERIES"},
		{"negative demand", `{"series": {"price": [1], "demand": [-1]}}`, http.StatusBadRequest, "INVALID_SERIES"},
		{"too many periods", `{"config": {"market": {"horizon": 100}}}`, http.StatusBadRequest, "PROBLEM_TOO_LARGE"},
		{"too many cells", `{"config": {"solver": {"soc_states": 5000, "actions": 101}}}`, http.StatusBadRequest, "PROBLEM_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/v1/solve", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[models.ErrorResponse](t, w).Error.Code)
		})
	}
}

func TestSolveWithPreset(t *testing.T) {
	router, _ := newTestRouter(t)
	body := `{
	  "config": {
	    "battery_file": "small_home",
	    "market": {"max_grid_supply_kwh": 5, "unmet_demand_penalty": 1000},
	    "solver": {"soc_states": 3, "actions": 3, "discount": 1},
	    "strategy": {"name": "idle"}
	  },
	  "series": {"price": [1, -1], "demand": [0, 0]},
	  "options": {"include_tables": true}
	}`
	w := do(t, router, http.MethodPost, "/api/v1/solve", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SolveResponse](t, w)
	assert.Equal(t, "idle", resp.Summary.Strategy)
	assert.InDelta(t, -3.0, resp.Summary.TotalProfit, 1e-9)
	assert.Nil(t, resp.Tables, "only oracle runs carry tables")
}

func TestCompare(t *testing.T) {
	router, _ := newTestRouter(t)
	body := `{
	  "base_config": {
	    "battery": {"max_soc_kwh": 10, "efficiency": 1, "max_energy_kwh": 5},
	    "market": {"max_grid_supply_kwh": 5, "unmet_demand_penalty": 1000},
	    "solver": {"soc_states": 3, "actions": 3, "discount": 1}
	  },
	  "series": {"price": [1, -1], "demand": [0, 0]}
	}`
	w := do(t, router, http.MethodPost, "/api/v1/compare", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.CompareResponse](t, w)

	require.Len(t, resp.Comparison, 3)
	assert.Equal(t, "oracle", resp.Comparison[0].Name)
	assert.Equal(t, 1, resp.Comparison[0].Rank)
	assert.InDelta(t, 7.0, resp.Comparison[0].Summary.TotalProfit, 1e-9)
	assert.Equal(t, "schedule", resp.Comparison[1].Name)
	assert.Equal(t, "idle", resp.Comparison[2].Name)
	assert.InDelta(t, 10.0, resp.Comparison[2].GapToBest, 1e-9)
	assert.Empty(t, resp.Skipped)

	body = `{
	  "base_config": {"solver": {"soc_states": 11, "actions": 5}},
	  "variations": [
	    {"name": "small grid", "config": {"solver": {"soc_states": 5}}},
	    {"name": "broken", "config": {"strategy": {"name": "greedy"}}}
	  ]
	}`
	w = do(t, router, http.MethodPost, "/api/v1/compare", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[models.CompareResponse](t, w)
	require.Len(t, resp.Comparison, 1)
	assert.Equal(t, "small grid", resp.Comparison[0].Name)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "broken", resp.Skipped[0].Name)
}

func TestListings(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/strategies", "")
	require.Equal(t, http.StatusOK, w.Code)
	strategies := decode[struct {
		Strategies []models.StrategyInfo `json:"strategies"`
	}](t, w)
	require.Len(t, strategies.Strategies, 3)

	w = do(t, router, http.MethodGet, "/api/v1/batteries", "")
	require.Equal(t, http.StatusOK, w.Code)
	batteries := decode[struct {
		Batteries []models.BatteryInfo `json:"batteries"`
	}](t, w)
	require.Len(t, batteries.Batteries, 1)
	assert.Equal(t, "small_home", batteries.Batteries[0].ID)
	assert.Equal(t, "Small home", batteries.Batteries[0].Name)
	assert.Equal(t, 10.0, batteries.Batteries[0].Specs.MaxSOC)
}

func TestScenarioAndPotential(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/api/v1/scenario?seed=3&periods=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	series := decode[struct {
		Price  []float64 `json:"price"`
		Demand []float64 `json:"demand"`
	}](t, w)
	assert.Len(t, series.Price, 5)
	assert.Len(t, series.Demand, 5)

	w = do(t, router, http.MethodGet, "/api/v1/scenario?price_min=2&price_max=1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/potential", `{"series": {"price": [4, -1, 2, 3], "demand": [1, 2, 3, 4]}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pot := decode[models.PotentialResponse](t, w)
	assert.Equal(t, 1, pot.NegativePricePeriods)
	assert.Equal(t, 10.0, pot.TotalDemand)
	assert.Equal(t, 4, pot.Price.Count)

	w = do(t, router, http.MethodPost, "/api/v1/potential", `{"horizon": 48}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 48, decode[models.PotentialResponse](t, w).Price.Count)
}

func TestNotFound(t *testing.T) {
	router, _ := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/api/v2/solve", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, w).Error.Code)
}
