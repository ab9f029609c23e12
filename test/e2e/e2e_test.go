// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastewise/internal/alerting"
	"wastewise/internal/api"
	"wastewise/internal/authsvc"
	"wastewise/internal/common/auth"
	"wastewise/internal/common/config"
	"wastewise/internal/common/database"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/metrics"
	"wastewise/internal/forecast"
	"wastewise/internal/forecast/features"
	"wastewise/internal/forecast/model"
	"wastewise/internal/forecast/trends"
	"wastewise/internal/nutrition/catalog"
	"wastewise/internal/nutrition/menu"
	"wastewise/internal/nutrition/similarity"
	"wastewise/internal/wastage"
)

// testEnv carries the live clients and the in-process API server the
// phases below share.
type testEnv struct {
	cfg    *config.Config
	pg     *database.PostgresClient
	server *httptest.Server
	es     *database.ElasticsearchClient

	email    string
	password string
	userID   string
	token    string
	recordID string
}

func TestFullE2E(t *testing.T) {
	if os.Getenv("E2E_TESTS") == "" {
		t.Skip("Skipping e2e: set E2E_TESTS=1 and run local postgres, redis, and elasticsearch")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Log("🚀 Starting FULL E2E Test with real services...")

	// 🔧 FORCE LOCALHOST + E2E SEARCH INDEX
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	cfg.Database.Elasticsearch.WasteIndex = "waste-records-e2e"

	env := &testEnv{
		cfg:      cfg,
		email:    fmt.Sprintf("e2e-%s@wastewise.io", uuid.New().String()[:8]),
		password: "sup3r-secret-pw",
	}

	// 1. Check all external services are available
	assertAllServicesConnectivity(t, env)

	// 2. Create DB tables if needed
	createDatabaseTables(t, env)

	// 3. Start the API in-process, wired exactly like cmd/api-server
	startServer(t, env)

	// 4. Walk the whole API surface
	testSystemEndpoints(t, env)
	testAccountLifecycle(t, env)
	testNutritionEndpoints(t, env)
	testWastageLifecycle(t, env)
	testPredictionAndLogout(t, env)

	t.Log("✅ ALL TESTS PASSED — Full E2E workflow successful!")
}

// ==========================
// 1. Service Connectivity
// ==========================
func assertAllServicesConnectivity(t *testing.T, env *testEnv) {
	t.Log("🔍 Checking service connectivity...")
	ctx := context.Background()

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(env.cfg.Database.Postgres)
	require.NoError(t, err, "❌ PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "❌ PostgreSQL ping failed")
	env.pg = pg
	t.Cleanup(func() { pg.Close() })
	t.Log("✅ PostgreSQL connected")

	// --- Redis ---
	rdb, err := database.NewRedis(env.cfg.Database.Redis)
	require.NoError(t, err, "❌ Redis client creation failed")
	require.NoError(t, rdb.Ping(ctx), "❌ Redis ping failed")
	t.Cleanup(func() { rdb.Close() })
	t.Log("✅ Redis connected")

	// --- Elasticsearch ---
	es, err := database.NewElasticsearch(env.cfg.Database.Elasticsearch)
	require.NoError(t, err, "❌ Elasticsearch client creation failed")
	require.NoError(t, es.Ping(ctx), "❌ Elasticsearch ping failed")
	env.es = es
	t.Log("✅ Elasticsearch connected")
}

// ==========================
// 2. Database Tables Setup
// ==========================
func createDatabaseTables(t *testing.T, env *testEnv) {
	t.Log("🔧 Creating database tables...")

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS waste_records (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			food_item VARCHAR(255) NOT NULL,
			quantity_kg NUMERIC(10,2) NOT NULL,
			logged_on DATE NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, q := range queries {
		_, err := env.pg.DB.Exec(q)
		require.NoError(t, err, "❌ Table creation failed")
	}

	// Drop rows from previous runs of this suite, newest tables first.
	t.Cleanup(func() {
		if env.userID == "" {
			return
		}
		env.pg.DB.Exec(`DELETE FROM waste_records WHERE user_id = $1`, env.userID)
		env.pg.DB.Exec(`DELETE FROM users WHERE id = $1`, env.userID)
	})

	t.Log("✅ Database tables ready")
}

// ==========================
// 3. In-Process API Server
// ==========================
func startServer(t *testing.T, env *testEnv) {
	t.Log("🔧 Wiring API server...")
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)
	cfg := env.cfg

	root := projectRoot(t)

	cat, err := catalog.Load(filepath.Join(root, cfg.Catalog.Path), log)
	require.NoError(t, err, "❌ Catalog load failed")
	metrics.CatalogEntries.Set(float64(cat.Len()))

	predictor, err := model.LoadActive(filepath.Join(root, cfg.Model.RegistryPath), cfg.Model.ActiveID, features.Columns(), log)
	require.NoError(t, err, "❌ Model load failed")

	engine := similarity.NewEngine(cat, similarity.Config{
		DefaultTopK: cfg.Similarity.DefaultTopK,
		MaxTopK:     cfg.Similarity.MaxTopK,
	}, log)
	aggregator := menu.NewAggregator(engine, log)
	analyzer := trends.NewAnalyzer(log)

	dispatcher := alerting.NewDispatcher(alerting.Config{Enabled: false}, nil, log)
	dispatcher.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		dispatcher.Stop(ctx)
	})

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	wastageSvc := wastage.NewService(
		wastage.NewStore(env.pg.DB, log),
		wastage.NewCache(rdb.Client, time.Duration(cfg.Cache.WasteListTTL)*time.Millisecond, log),
		wastage.NewSearch(env.es.Client, cfg.Database.Elasticsearch.WasteIndex, log),
		analyzer,
		dispatcher,
		log,
	)
	forecastSvc := forecast.NewService(predictor, analyzer, wastageSvc, log)

	authSvc := authsvc.NewService(
		authsvc.NewUserStore(env.pg.DB, log),
		auth.NewTokenManager("e2e-test-secret", cfg.Auth.Issuer, time.Hour),
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		authsvc.NewRevocationList(rdb.Client, log),
		log,
	)

	router := api.NewRouter(api.Dependencies{
		Logger:   log,
		Auth:     authSvc,
		Engine:   engine,
		Menu:     aggregator,
		Wastage:  wastageSvc,
		Forecast: forecastSvc,
		Checks: []api.ReadinessCheck{
			{Name: "postgres", Pinger: env.pg},
			{Name: "redis", Pinger: rdb},
			{Name: "elasticsearch", Pinger: env.es},
		},
		CatalogCount: cat.Len(),
		ModelID:      predictor.ModelID(),
		Version:      cfg.App.Version,
	})

	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	t.Logf("✅ API server listening on %s", env.server.URL)
}

// ==========================
// 4. System Endpoints
// ==========================
func testSystemEndpoints(t *testing.T, env *testEnv) {
	t.Log("🔍 Testing system endpoints...")

	status, body := doJSON(t, env, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = doJSON(t, env, "GET", "/ready", "", nil)
	assert.Equal(t, http.StatusOK, status, "❌ /ready degraded: %v", body)
	assert.Equal(t, "ready", body["status"])
	checks, ok := body["checks"].(map[string]interface{})
	require.True(t, ok, "❌ /ready body missing checks: %v", body)
	assert.Equal(t, "wastecast-v2", checks["model_id"])

	resp, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	t.Log("✅ System endpoints OK")
}

// ==========================
// 5. Account Lifecycle
// ==========================
func testAccountLifecycle(t *testing.T, env *testEnv) {
	t.Log("🔍 Testing signup/login...")

	creds := map[string]interface{}{"email": env.email, "password": env.password}

	status, body := doJSON(t, env, "POST", "/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, status, "❌ Signup failed: %v", body)
	env.userID = body["user_id"].(string)
	assert.Equal(t, env.email, body["email"])

	// Duplicate signup must conflict.
	status, body = doJSON(t, env, "POST", "/auth/signup", "", creds)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "USER_ALREADY_EXISTS", body["code"])

	status, body = doJSON(t, env, "POST", "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, status, "❌ Login failed: %v", body)
	env.token = body["access_token"].(string)
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Greater(t, body["expires_in"].(float64), float64(0))

	status, body = doJSON(t, env, "POST", "/auth/login", "", map[string]interface{}{
		"email": env.email, "password": "wrong-password-98",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])

	t.Log("✅ Signup/login OK")
}

// ==========================
// 6. Nutrition Endpoints
// ==========================
func testNutritionEndpoints(t *testing.T, env *testEnv) {
	t.Log("🔍 Testing food and menu alternatives...")

	status, body := doJSON(t, env, "GET", "/food-alternatives?food=paneer&k=3", "", nil)
	require.Equal(t, http.StatusOK, status, "❌ Alternatives failed: %v", body)
	assert.Equal(t, "Paneer", body["input_food"])
	alternatives := body["alternatives"].([]interface{})
	assert.Len(t, alternatives, 3)

	status, body = doJSON(t, env, "GET", "/food-alternatives?food=unobtainium", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "FOOD_NOT_FOUND", body["code"])

	status, body = doJSON(t, env, "POST", "/menu-alternatives", "", map[string]interface{}{
		"menu": []string{"Dal Tadka", "no-such-dish"},
	})
	require.Equal(t, http.StatusOK, status)
	items := body["items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	second := items[1].(map[string]interface{})
	assert.Equal(t, "resolved", first["status"])
	assert.Equal(t, "unresolved", second["status"])

	t.Log("✅ Nutrition endpoints OK")
}

// ==========================
// 7. Wastage CRUD + Analysis + Search
// ==========================
func testWastageLifecycle(t *testing.T, env *testEnv) {
	t.Log("🔍 Testing wastage records...")

	// No token, no records.
	status, body := doJSON(t, env, "GET", "/wastage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", body["code"])

	// Two records a week apart land in adjacent ISO weeks and inside the
	// 30-day window the forecaster reads.
	lastWeek := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	today := time.Now().Format("2006-01-02")
	records := []map[string]interface{}{
		{"food_item": "Plain Rice", "quantity_kg": 4.5, "logged_on": lastWeek},
		{"food_item": "Dal Tadka", "quantity_kg": 7.5, "logged_on": today},
	}
	for _, rec := range records {
		status, body = doJSON(t, env, "POST", "/wastage", env.token, rec)
		require.Equal(t, http.StatusCreated, status, "❌ Create failed: %v", body)
		env.recordID = body["id"].(string)
	}

	status, body = doJSON(t, env, "GET", "/wastage", env.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["count"])

	// Second read comes from the redis cache and must agree.
	status, cached := doJSON(t, env, "GET", "/wastage", env.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, body["count"], cached["count"])

	status, body = doJSON(t, env, "PUT", "/wastage/"+env.recordID, env.token, map[string]interface{}{
		"food_item": "Dal Makhani", "quantity_kg": 6.25, "logged_on": today,
	})
	require.Equal(t, http.StatusOK, status, "❌ Update failed: %v", body)
	assert.Equal(t, "Dal Makhani", body["food_item"])

	status, body = doJSON(t, env, "GET", "/wastage/"+env.recordID, env.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 6.25, body["quantity_kg"])

	// Foreign ids must look like missing records.
	status, body = doJSON(t, env, "GET", "/wastage/"+uuid.New().String(), env.token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "RECORD_NOT_FOUND", body["code"])

	status, body = doJSON(t, env, "GET", "/wastage/analysis", env.token, nil)
	require.Equal(t, http.StatusOK, status, "❌ Analysis failed: %v", body)
	historical := body["historical"].(map[string]interface{})
	assert.Len(t, historical["weekly_waste"], 2)
	assert.Equal(t, "increasing", historical["trend"])

	// Make indexed documents visible before searching.
	_, err := env.es.Client.Indices.Refresh(
		env.es.Client.Indices.Refresh.WithIndex(env.cfg.Database.Elasticsearch.WasteIndex),
	)
	require.NoError(t, err)

	status, body = doJSON(t, env, "GET", "/wastage/search?q=Dal", env.token, nil)
	require.Equal(t, http.StatusOK, status, "❌ Search failed: %v", body)
	assert.GreaterOrEqual(t, body["total_hits"].(float64), float64(1))

	t.Log("✅ Wastage records OK")
}

// ==========================
// 8. Prediction + Logout
// ==========================
func testPredictionAndLogout(t *testing.T, env *testEnv) {
	t.Log("🔍 Testing waste prediction and logout...")

	status, body := doJSON(t, env, "POST", "/waste-prediction", env.token, map[string]interface{}{
		"menu_items":  []string{"Plain Rice", "Dal Makhani"},
		"day_of_week": 4,
	})
	require.Equal(t, http.StatusOK, status, "❌ Prediction failed: %v", body)
	prediction := body["prediction"].(map[string]interface{})
	assert.Greater(t, prediction["predicted_waste_kg"].(float64), float64(0))
	assert.Equal(t, "medium", prediction["confidence_level"])

	status, body = doJSON(t, env, "POST", "/waste-prediction", env.token, map[string]interface{}{
		"menu_items":  []string{"Plain Rice"},
		"day_of_week": 9,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", body["code"])

	status, body = doJSON(t, env, "DELETE", "/wastage/"+env.recordID, env.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Record deleted", body["message"])

	status, _ = doJSON(t, env, "POST", "/auth/logout", env.token, nil)
	require.Equal(t, http.StatusOK, status)

	// The revoked token must stop working immediately.
	status, body = doJSON(t, env, "GET", "/wastage", env.token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_REVOKED", body["code"])

	t.Log("✅ Prediction and logout OK")
}

// ==========================
// Helpers
// ==========================

// doJSON performs one request against the test server and decodes the
// JSON body into a generic map. Endpoints returning non-JSON use raw
// HTTP calls instead.
func doJSON(t *testing.T, env *testEnv, method, path, token string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reqBody *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, env.server.URL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		body = nil
	}
	return resp.StatusCode, body
}

// projectRoot walks up from the test's working directory to the go.mod
// so catalog and registry paths resolve regardless of where go test runs.
func projectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, dir, parent, "go.mod not found above test directory")
		dir = parent
	}
}
