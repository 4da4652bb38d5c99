package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/forkful/backend/internal/database"
	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/model"
	"github.com/forkful/backend/internal/service"
)

// stubGenerator is a canned TextImageGenerator that counts calls so
// tests can assert the client is never touched when unconfigured.
type stubGenerator struct {
	configured bool

	TextResponse  string
	TextErr       error
	ImageResponse []byte
	ImageMime     string
	ImageErr      error

	TextCalls  int
	ImageCalls int
}

func (s *stubGenerator) Configured() bool { return s.configured }

func (s *stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	s.TextCalls++
	return s.TextResponse, s.TextErr
}

func (s *stubGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	s.ImageCalls++
	return s.ImageResponse, s.ImageMime, s.ImageErr
}

// setupTestDB opens an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory DB.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Recipe{}, &model.RecipeRating{}))
	return db
}

// setupTestRouter wires the full route surface against the test DB and
// the stub AI client. Mirrors router.Setup minus CORS; no Redis means
// no rate limiting in tests.
func setupTestRouter(t *testing.T, db *gorm.DB, ai *stubGenerator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authService := service.NewAuthService(db, "test-secret")
	imageService := service.NewImageService(nil)
	recipeService := service.NewRecipeService(db, ai, imageService)

	authHandler := NewAuthHandler(authService)
	recipeHandler := NewRecipeHandler(recipeService, authService, nil)

	r := gin.New()
	r.Use(middleware.Recovery())
	r.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context(), db); err != nil {
			c.JSON(503, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	authHandler.RegisterRoutes(apiGroup)
	recipeHandler.RegisterRoutes(apiGroup)
	return r
}

// createTestUserAndToken registers a user directly through the auth
// service and returns the persisted user with a valid token.
func createTestUserAndToken(t *testing.T, db *gorm.DB, email string) (*model.User, string) {
	t.Helper()

	authService := service.NewAuthService(db, "test-secret")
	token, err := authService.Register(context.Background(), "Test User", email, "password123")
	require.NoError(t, err)

	var user model.User
	require.NoError(t, db.Where("email = ?", email).First(&user).Error)
	return &user, token
}

// createTestRecipe inserts a recipe directly into the DB.
func createTestRecipe(t *testing.T, db *gorm.DB, title string) *model.Recipe {
	t.Helper()

	recipe := &model.Recipe{
		Title:        title,
		Description:  model.JSONBStringArray{"A test recipe"},
		Ingredients:  model.JSONBStringArray{"1 cup rice"},
		Instructions: model.JSONBStringArray{"Cook the rice"},
		PortionSize:  "2 people",
		Category:     model.JSONBStringArray{model.CategoryVegetarian},
		Difficulty:   model.DifficultyEasy,
	}
	require.NoError(t, db.Create(recipe).Error)
	return recipe
}

// doJSON performs a request with an optional body and bearer token.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
