package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/model"
	"github.com/forkful/backend/internal/service"
)

// aiTimeout bounds a single AI generation round trip.
const aiTimeout = 45 * time.Second

// RecipeHandler exposes the recipe endpoints.
type RecipeHandler struct {
	recipeService *service.RecipeService
	authService   *service.AuthService
	aiLimiter     *middleware.RateLimiter
}

// NewRecipeHandler creates a new RecipeHandler instance. aiLimiter may
// be nil, which disables rate limiting on the AI routes.
func NewRecipeHandler(recipeService *service.RecipeService, authService *service.AuthService, aiLimiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		authService:   authService,
		aiLimiter:     aiLimiter,
	}
}

// RegisterRoutes mounts the recipe endpoints on the given group.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)
	limited := h.aiLimiter.Middleware()

	recipes := router.Group("/recipe")
	{
		recipes.GET("/", h.List)
		recipes.GET("/recipe-saved", auth, h.ListSaved)
		recipes.GET("/:id", h.Get)
		recipes.POST("/", auth, limited, h.Generate)
		recipes.PUT("/:id", auth, h.Update)
		recipes.DELETE("/:id", auth, h.Delete)
		recipes.POST("/:id/save", auth, h.Save)
		recipes.DELETE("/:id/save", auth, h.Unsave)
		recipes.POST("/:id/rate", auth, h.Rate)
		recipes.POST("/:id/generate-image", auth, limited, h.GenerateImage)
	}
}

type generateRequest struct {
	Ingredients []string `json:"ingredients" binding:"required,min=1"`
	PortionSize string   `json:"portionSize" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Difficulty  string   `json:"difficulty" binding:"required"`
}

type updateRequest struct {
	Title           *string               `json:"title"`
	Description     *[]string             `json:"description"`
	Ingredients     *[]string             `json:"ingredients"`
	Instructions    *[]string             `json:"instructions"`
	PortionSize     *string               `json:"portionSize"`
	Category        *service.CategoryList `json:"category"`
	Difficulty      *string               `json:"difficulty"`
	Image           *string               `json:"image"`
	Tags            *[]string             `json:"tags"`
	Cuisine         *string               `json:"cuisine"`
	NutritionalInfo *struct {
		Calories float64 `json:"calories"`
		Protein  float64 `json:"protein"`
		Fat      float64 `json:"fat"`
		Carbs    float64 `json:"carbs"`
	} `json:"nutritionalInfo"`
}

type rateRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// List returns all recipes.
func (h *RecipeHandler) List(c *gin.Context) {
	recipes, err := h.recipeService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// ListSaved returns the authenticated user's saved recipes.
func (h *RecipeHandler) ListSaved(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipes, err := h.recipeService.ListSaved(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// Get returns one recipe by id.
func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

// Generate creates a recipe via the AI pipeline.
func (h *RecipeHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), aiTimeout)
	defer cancel()

	recipe, err := h.recipeService.Generate(ctx, service.GenerateParams{
		Ingredients: req.Ingredients,
		PortionSize: req.PortionSize,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Recipe created successfully",
		"recipe":  recipe,
	})
}

// Update applies a partial update to a recipe.
func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	params := service.UpdateParams{
		Title:        req.Title,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		PortionSize:  req.PortionSize,
		Category:     req.Category,
		Difficulty:   req.Difficulty,
		Image:        req.Image,
		Tags:         req.Tags,
		Cuisine:      req.Cuisine,
	}
	if req.NutritionalInfo != nil {
		params.NutritionalInfo = &model.NutritionalInfo{
			Calories: req.NutritionalInfo.Calories,
			Protein:  req.NutritionalInfo.Protein,
			Fat:      req.NutritionalInfo.Fat,
			Carbs:    req.NutritionalInfo.Carbs,
		}
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), id, params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe updated successfully",
		"recipe":  recipe,
	})
}

// Delete removes a recipe.
func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
}

// Save adds the recipe to the caller's favorites.
func (h *RecipeHandler) Save(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.recipeService.Save(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe saved successfully"})
}

// Unsave removes the recipe from the caller's favorites.
func (h *RecipeHandler) Unsave(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.recipeService.Unsave(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe unsaved successfully"})
}

// Rate records the caller's rating and returns the recipe with its new
// average.
func (h *RecipeHandler) Rate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	recipe, err := h.recipeService.Rate(c.Request.Context(), id, userID, req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe rated successfully",
		"recipe":  recipe,
	})
}

// GenerateImage asks the AI image modality for a recipe photo and
// stores the result on the recipe.
func (h *RecipeHandler) GenerateImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), aiTimeout)
	defer cancel()

	recipe, err := h.recipeService.GenerateImage(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe image generated successfully",
		"recipe":  recipe,
	})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return uuid.Nil, false
	}
	return id, true
}
