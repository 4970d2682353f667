package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"finwise/internal/handlers"
	"finwise/internal/jobs"
	"finwise/internal/logger"
	"finwise/internal/middleware"
	"finwise/internal/models"
	"finwise/internal/parser"
	"finwise/internal/services"
	"finwise/internal/validator"
)

const testCallbackKey = "test-callback-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB        *gorm.DB
	Router    *gin.Engine
	Publisher *capturePublisher
}

// capturePublisher records escalation jobs instead of dispatching them, so a
// test can play the remote parser's side of the exchange itself.
type capturePublisher struct {
	mu   sync.Mutex
	jobs []*jobs.RemoteParseJob
}

func (p *capturePublisher) PublishRemoteParse(_ context.Context, job *jobs.RemoteParseJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) published() []*jobs.RemoteParseJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*jobs.RemoteParseJob, len(p.jobs))
	copy(out, p.jobs)
	return out
}

var _ jobs.Publisher = (*capturePublisher)(nil)

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Message{},
		&models.FinancialProfile{},
		&models.FinancialGoal{},
		&models.Recommendation{},
		&models.Challenge{},
		&models.Nudge{},
		&models.Streak{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	publisher := &capturePublisher{}
	insightConfig := services.DefaultInsightConfig()

	// Services
	userService := services.NewUserService(db)
	ingestService := services.NewIngestService(db, parser.NewDefault(), publisher,
		"http://localhost:8080/internal/parse-callback")
	transactionService := services.NewTransactionService(db)
	healthService := services.NewHealthService(db, insightConfig)
	recommendationService := services.NewRecommendationService(db, insightConfig)
	profileService := services.NewProfileService(db)
	goalService := services.NewGoalService(db, insightConfig, recommendationService)
	coachingService := services.NewCoachingService(db, insightConfig, healthService, nil)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	messageHandler := handlers.NewMessageHandler(ingestService, transactionService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	insightHandler := handlers.NewInsightHandler(healthService, recommendationService, profileService)
	goalHandler := handlers.NewGoalHandler(goalService)
	coachingHandler := handlers.NewCoachingHandler(coachingService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	router.POST("/internal/parse-callback",
		middleware.CallbackAuthMiddleware(testCallbackKey),
		messageHandler.ParseCallback)

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/me", authHandler.GetMe)

	messages := protected.Group("/messages")
	messages.POST("", messageHandler.IngestMessage)
	messages.GET("", messageHandler.ListMessages)
	messages.GET("/:id", messageHandler.GetMessage)
	messages.POST("/:id/reparse", messageHandler.ReparseMessage)
	messages.DELETE("/:id", messageHandler.DeleteMessage)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/summary", transactionHandler.GetSummary)

	insights := protected.Group("/insights")
	insights.GET("/health", insightHandler.GetHealthScore)
	insights.POST("/recommendations/generate", insightHandler.GenerateRecommendations)
	insights.GET("/recommendations", insightHandler.ListRecommendations)
	insights.POST("/recommendations/:id/respond", insightHandler.RespondToRecommendation)
	insights.GET("/profile", insightHandler.GetFinancialProfile)
	insights.PATCH("/profile/preferences", insightHandler.UpdatePreferences)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.ListGoals)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PATCH("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.GET("/:id/accelerate", goalHandler.AccelerateGoal)

	coaching := protected.Group("/coaching")
	coaching.POST("/challenges/generate", coachingHandler.GenerateChallenges)
	coaching.GET("/challenges", coachingHandler.ListChallenges)
	coaching.POST("/challenges/progress", coachingHandler.UpdateChallengeProgress)
	coaching.POST("/nudges/send", coachingHandler.SendNudge)
	coaching.POST("/nudges/:id/respond", coachingHandler.RespondToNudge)
	coaching.GET("/streak", coachingHandler.GetStreak)

	return &testApp{DB: db, Router: router, Publisher: publisher}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// callback posts a remote parse result to the internal callback endpoint.
func (app *testApp) callback(body, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/internal/parse-callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// ingestMessage posts one notification and returns the stored message JSON.
func (app *testApp) ingestMessage(t *testing.T, token, text string) map[string]interface{} {
	t.Helper()
	body := fmt.Sprintf(`{"phone_number":"VM-HDFCBK","message":%q,"consent_store_raw":true}`, text)
	rec := app.request("POST", "/api/v1/messages", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["message"].(map[string]interface{})
}
