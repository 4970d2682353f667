package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "finwise/internal/errors"
	"finwise/internal/models"
	"finwise/internal/pagination"
	"finwise/internal/services"
)

// --- mock insight services ---

type mockHealthService struct {
	calculateFn func(userID string) (*services.HealthScores, error)
}

func (m *mockHealthService) CalculateHealthScore(userID string) (*services.HealthScores, error) {
	if m.calculateFn != nil {
		return m.calculateFn(userID)
	}
	return &services.HealthScores{}, nil
}

var _ services.HealthServicer = (*mockHealthService)(nil)

type mockRecommendationService struct {
	generateSpendingFn func(userID string) ([]models.Recommendation, error)
	generateSubsFn     func(userID string) ([]models.Recommendation, error)
	listFn             func(userID string, page pagination.PageRequest, status *models.RecommendationStatus) (*pagination.PageResponse[models.Recommendation], error)
	respondFn          func(userID, recommendationID string, status models.RecommendationStatus) (*models.Recommendation, error)
}

func (m *mockRecommendationService) GenerateSpendingRecommendations(userID string) ([]models.Recommendation, error) {
	if m.generateSpendingFn != nil {
		return m.generateSpendingFn(userID)
	}
	return nil, nil
}

func (m *mockRecommendationService) GenerateSubscriptionRecommendations(userID string) ([]models.Recommendation, error) {
	if m.generateSubsFn != nil {
		return m.generateSubsFn(userID)
	}
	return nil, nil
}

func (m *mockRecommendationService) ListRecommendations(userID string, page pagination.PageRequest, status *models.RecommendationStatus) (*pagination.PageResponse[models.Recommendation], error) {
	if m.listFn != nil {
		return m.listFn(userID, page, status)
	}
	resp := pagination.NewPageResponse([]models.Recommendation{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockRecommendationService) RespondToRecommendation(userID, recommendationID string, status models.RecommendationStatus) (*models.Recommendation, error) {
	if m.respondFn != nil {
		return m.respondFn(userID, recommendationID, status)
	}
	return &models.Recommendation{}, nil
}

var _ services.RecommendationServicer = (*mockRecommendationService)(nil)

type mockProfileService struct {
	getOrCreateFn func(userID string) (*models.FinancialProfile, error)
	updateFn      func(userID string, update services.ProfileUpdate) (*models.FinancialProfile, error)
}

func (m *mockProfileService) GetOrCreateProfile(userID string) (*models.FinancialProfile, error) {
	if m.getOrCreateFn != nil {
		return m.getOrCreateFn(userID)
	}
	return &models.FinancialProfile{}, nil
}

func (m *mockProfileService) UpdatePreferences(userID string, update services.ProfileUpdate) (*models.FinancialProfile, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, update)
	}
	return &models.FinancialProfile{}, nil
}

var _ services.ProfileServicer = (*mockProfileService)(nil)

func setupInsightRouter(handler *InsightHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID("user-1"))
	auth.GET("/insights/health", handler.GetHealthScore)
	auth.POST("/insights/recommendations/generate", handler.GenerateRecommendations)
	auth.GET("/insights/recommendations", handler.ListRecommendations)
	auth.POST("/insights/recommendations/:id/respond", handler.RespondToRecommendation)
	auth.GET("/insights/profile", handler.GetFinancialProfile)
	auth.PATCH("/insights/profile/preferences", handler.UpdatePreferences)
	return r
}

func newInsightHandler(health *mockHealthService, rec *mockRecommendationService, profile *mockProfileService) *InsightHandler {
	if health == nil {
		health = &mockHealthService{}
	}
	if rec == nil {
		rec = &mockRecommendationService{}
	}
	if profile == nil {
		profile = &mockProfileService{}
	}
	return NewInsightHandler(health, rec, profile)
}

func TestInsightHandler_GetHealthScore(t *testing.T) {
	t.Run("returns scores", func(t *testing.T) {
		health := &mockHealthService{
			calculateFn: func(_ string) (*services.HealthScores, error) {
				return &services.HealthScores{
					Overall:   72.5,
					Savings:   60,
					Spending:  80,
					Stability: 70,
					Progress:  85,
				}, nil
			},
		}
		r := setupInsightRouter(newInsightHandler(health, nil, nil))

		rec := doRequest(r, "GET", "/insights/health", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		scores := result["health"].(map[string]interface{})
		if scores["overall_score"].(float64) != 72.5 {
			t.Errorf("expected overall 72.5, got %v", scores["overall_score"])
		}
	})

	t.Run("propagates service errors", func(t *testing.T) {
		health := &mockHealthService{
			calculateFn: func(_ string) (*services.HealthScores, error) {
				return nil, apperrors.ErrInternalServer
			},
		}
		r := setupInsightRouter(newInsightHandler(health, nil, nil))

		rec := doRequest(r, "GET", "/insights/health", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestInsightHandler_GenerateRecommendations(t *testing.T) {
	t.Run("returns both analyses", func(t *testing.T) {
		recSvc := &mockRecommendationService{
			generateSpendingFn: func(_ string) ([]models.Recommendation, error) {
				return []models.Recommendation{
					{Base: models.Base{ID: "rec-1"}, Type: models.RecommendationSpendingOptimization},
				}, nil
			},
			generateSubsFn: func(_ string) ([]models.Recommendation, error) {
				return []models.Recommendation{
					{Base: models.Base{ID: "rec-2"}, Type: models.RecommendationSubscriptionOptimization},
					{Base: models.Base{ID: "rec-3"}, Type: models.RecommendationSubscriptionOptimization},
				}, nil
			},
		}
		r := setupInsightRouter(newInsightHandler(nil, recSvc, nil))

		rec := doRequest(r, "POST", "/insights/recommendations/generate", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if n := len(result["spending"].([]interface{})); n != 1 {
			t.Errorf("expected 1 spending recommendation, got %d", n)
		}
		if n := len(result["subscriptions"].([]interface{})); n != 2 {
			t.Errorf("expected 2 subscription recommendations, got %d", n)
		}
	})
}

func TestInsightHandler_ListRecommendations(t *testing.T) {
	t.Run("forwards status filter", func(t *testing.T) {
		var gotStatus *models.RecommendationStatus
		recSvc := &mockRecommendationService{
			listFn: func(_ string, _ pagination.PageRequest, status *models.RecommendationStatus) (*pagination.PageResponse[models.Recommendation], error) {
				gotStatus = status
				resp := pagination.NewPageResponse([]models.Recommendation{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupInsightRouter(newInsightHandler(nil, recSvc, nil))

		rec := doRequest(r, "GET", "/insights/recommendations?status=accepted", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotStatus == nil || *gotStatus != models.RecommendationAccepted {
			t.Errorf("expected accepted filter, got %v", gotStatus)
		}
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		r := setupInsightRouter(newInsightHandler(nil, nil, nil))

		rec := doRequest(r, "GET", "/insights/recommendations?status=bogus", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestInsightHandler_RespondToRecommendation(t *testing.T) {
	t.Run("records decision", func(t *testing.T) {
		var gotStatus models.RecommendationStatus
		recSvc := &mockRecommendationService{
			respondFn: func(_, recommendationID string, status models.RecommendationStatus) (*models.Recommendation, error) {
				gotStatus = status
				return &models.Recommendation{Base: models.Base{ID: recommendationID}, Status: status}, nil
			},
		}
		r := setupInsightRouter(newInsightHandler(nil, recSvc, nil))

		rec := doRequest(r, "POST", "/insights/recommendations/rec-1/respond", `{"status":"accepted"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotStatus != models.RecommendationAccepted {
			t.Errorf("expected accepted, got %s", gotStatus)
		}
	})

	t.Run("rejects pending as a response", func(t *testing.T) {
		r := setupInsightRouter(newInsightHandler(nil, nil, nil))

		rec := doRequest(r, "POST", "/insights/recommendations/rec-1/respond", `{"status":"pending"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 404 on unknown recommendation", func(t *testing.T) {
		recSvc := &mockRecommendationService{
			respondFn: func(_, _ string, _ models.RecommendationStatus) (*models.Recommendation, error) {
				return nil, apperrors.ErrRecommendationNotFound
			},
		}
		r := setupInsightRouter(newInsightHandler(nil, recSvc, nil))

		rec := doRequest(r, "POST", "/insights/recommendations/missing/respond", `{"status":"dismissed"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RECOMMENDATION_NOT_FOUND")
	})
}

func TestInsightHandler_Profile(t *testing.T) {
	t.Run("get returns profile", func(t *testing.T) {
		profileSvc := &mockProfileService{
			getOrCreateFn: func(userID string) (*models.FinancialProfile, error) {
				return &models.FinancialProfile{UserID: userID, RiskTolerance: 0.5}, nil
			},
		}
		r := setupInsightRouter(newInsightHandler(nil, nil, profileSvc))

		rec := doRequest(r, "GET", "/insights/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		profile := result["profile"].(map[string]interface{})
		if profile["risk_tolerance"].(float64) != 0.5 {
			t.Errorf("expected risk tolerance 0.5, got %v", profile["risk_tolerance"])
		}
	})

	t.Run("update forwards only provided fields", func(t *testing.T) {
		var gotUpdate services.ProfileUpdate
		profileSvc := &mockProfileService{
			updateFn: func(_ string, update services.ProfileUpdate) (*models.FinancialProfile, error) {
				gotUpdate = update
				return &models.FinancialProfile{MonthlyIncome: update.MonthlyIncome}, nil
			},
		}
		r := setupInsightRouter(newInsightHandler(nil, nil, profileSvc))

		rec := doRequest(r, "PATCH", "/insights/profile/preferences", `{"monthly_income":75000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUpdate.MonthlyIncome == nil || *gotUpdate.MonthlyIncome != 75000 {
			t.Errorf("expected income 75000, got %v", gotUpdate.MonthlyIncome)
		}
		if gotUpdate.RiskTolerance != nil || gotUpdate.BehavioralType != nil {
			t.Error("unset fields must stay nil")
		}
	})

	t.Run("rejects out-of-range risk tolerance", func(t *testing.T) {
		r := setupInsightRouter(newInsightHandler(nil, nil, nil))

		rec := doRequest(r, "PATCH", "/insights/profile/preferences", `{"risk_tolerance":1.5}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects unknown behavioral type", func(t *testing.T) {
		r := setupInsightRouter(newInsightHandler(nil, nil, nil))

		rec := doRequest(r, "PATCH", "/insights/profile/preferences", `{"behavioral_type":"gambler"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
