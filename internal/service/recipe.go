package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forkful/backend/internal/jsonrepair"
	"github.com/forkful/backend/internal/model"
)

// RecipeService owns recipe business logic: CRUD, the AI generation
// pipeline, favorites bookkeeping and image generation.
type RecipeService struct {
	db     *gorm.DB
	ai     TextImageGenerator
	images *ImageService
}

// NewRecipeService creates a new RecipeService instance.
func NewRecipeService(db *gorm.DB, ai TextImageGenerator, images *ImageService) *RecipeService {
	return &RecipeService{
		db:     db,
		ai:     ai,
		images: images,
	}
}

// GenerateParams is the caller's input to AI-backed recipe creation.
type GenerateParams struct {
	Ingredients []string
	PortionSize string
	Category    string
	Difficulty  string
}

// UpdateParams carries a partial update: nil fields leave the stored
// value unchanged.
type UpdateParams struct {
	Title           *string
	Description     *[]string
	Ingredients     *[]string
	Instructions    *[]string
	PortionSize     *string
	Category        *CategoryList
	Difficulty      *string
	NutritionalInfo *model.NutritionalInfo
	Image           *string
	Tags            *[]string
	Cuisine         *string
}

// CategoryList accepts either a single scalar or a list in JSON, so a
// client sending `"category": "veg"` gets a one-element set.
type CategoryList []string

func (c *CategoryList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = CategoryList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*c = CategoryList(many)
		return nil
	}
	return fmt.Errorf("category must be a string or an array of strings")
}

// Ingredient is the union shape the model returns: either a plain
// pre-formatted string or a structured {item, amount, unit} record.
type Ingredient struct {
	Plain  string
	Item   string
	Amount string
	Unit   string
}

func (i *Ingredient) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		i.Plain = plain
		return nil
	}

	var structured struct {
		Item   string     `json:"item"`
		Amount flexScalar `json:"amount"`
		Unit   flexScalar `json:"unit"`
	}
	if err := json.Unmarshal(data, &structured); err != nil {
		return fmt.Errorf("ingredient must be a string or an object: %w", err)
	}
	i.Item = structured.Item
	i.Amount = string(structured.Amount)
	i.Unit = string(structured.Unit)
	return nil
}

// Format renders the ingredient as "amount unit item" with normalized
// whitespace; missing parts are simply omitted.
func (i Ingredient) Format() string {
	if i.Plain != "" {
		return strings.Join(strings.Fields(i.Plain), " ")
	}
	return strings.Join(strings.Fields(i.Amount+" "+i.Unit+" "+i.Item), " ")
}

// flexScalar decodes a JSON string or number into its string form.
type flexScalar string

func (f *flexScalar) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexScalar(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexScalar(n.String())
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	return fmt.Errorf("expected string or number, got %s", string(data))
}

// nutritionValue coerces the model's nutrition output: numbers pass
// through, strings are stripped to their digits and dot ("200kcal"
// becomes 200), anything unparseable becomes 0.
type nutritionValue float64

func (n *nutritionValue) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*n = nutritionValue(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = nutritionValue(CoerceNutrition(s))
		return nil
	}

	*n = 0
	return nil
}

// generatedRecipe is the JSON schema the model is prompted to produce.
type generatedRecipe struct {
	Title           string       `json:"title"`
	Description     []string     `json:"description"`
	Ingredients     []Ingredient `json:"ingredients"`
	Instructions    []string     `json:"instructions"`
	NutritionalInfo struct {
		Calories nutritionValue `json:"calories"`
		Protein  nutritionValue `json:"protein"`
		Fat      nutritionValue `json:"fat"`
		Carbs    nutritionValue `json:"carbs"`
	} `json:"nutritionalInfo"`
	Tags    []string `json:"tags"`
	Cuisine string   `json:"cuisine"`
}

var categoryLookup = map[string]string{
	"veg":           model.CategoryVegetarian,
	"vegetarian":    model.CategoryVegetarian,
	"nonveg":        model.CategoryNonVegetarian,
	"nonvegetarian": model.CategoryNonVegetarian,
	"vegan":         model.CategoryVegan,
	"spicy":         model.CategorySpicy,
}

// NormalizeCategory lower-cases the input, strips every non-letter rune
// and maps the result through a fixed lookup; unknown values become
// "other".
func NormalizeCategory(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	if mapped, ok := categoryLookup[b.String()]; ok {
		return mapped
	}
	return model.CategoryOther
}

// CoerceNutrition strips all non-digit/non-dot characters and parses
// the remainder as a float, defaulting to 0.
func CoerceNutrition(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// Round2 rounds to 2 decimal places, the precision nutrition values are
// stored with.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// List returns every recipe ordered by creation time.
func (s *RecipeService) List(ctx context.Context) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Get returns one recipe by id.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// Generate runs the AI creation pipeline: prompt, generate, repair and
// parse, reshape, persist. The recipe is only written after the model
// output parsed cleanly, so creation is atomic from the caller's view.
func (s *RecipeService) Generate(ctx context.Context, params GenerateParams) (*model.Recipe, error) {
	if s.ai == nil || !s.ai.Configured() {
		return nil, ErrAINotConfigured
	}

	raw, err := s.ai.GenerateText(ctx, buildRecipePrompt(params))
	if err != nil {
		return nil, err
	}

	var gen generatedRecipe
	if err := jsonrepair.Parse(raw, &gen); err != nil {
		return nil, err
	}

	ingredients := make([]string, 0, len(gen.Ingredients))
	for _, ing := range gen.Ingredients {
		if formatted := ing.Format(); formatted != "" {
			ingredients = append(ingredients, formatted)
		}
	}

	difficulty := strings.ToLower(strings.TrimSpace(params.Difficulty))
	switch difficulty {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
	default:
		difficulty = model.DifficultyMedium
	}

	recipe := &model.Recipe{
		Title:        gen.Title,
		Description:  model.JSONBStringArray(gen.Description),
		Ingredients:  model.JSONBStringArray(ingredients),
		Instructions: model.JSONBStringArray(gen.Instructions),
		PortionSize:  params.PortionSize,
		Category:     model.JSONBStringArray{NormalizeCategory(params.Category)},
		Difficulty:   difficulty,
		Tags:         model.JSONBStringArray(gen.Tags),
		Cuisine:      gen.Cuisine,
		NutritionalInfo: model.NutritionalInfo{
			Calories: Round2(float64(gen.NutritionalInfo.Calories)),
			Protein:  Round2(float64(gen.NutritionalInfo.Protein)),
			Fat:      Round2(float64(gen.NutritionalInfo.Fat)),
			Carbs:    Round2(float64(gen.NutritionalInfo.Carbs)),
		},
	}

	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// Update applies a partial update; omitted fields keep their stored
// values.
func (s *RecipeService) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*model.Recipe, error) {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		recipe.Title = *params.Title
	}
	if params.Description != nil {
		recipe.Description = model.JSONBStringArray(*params.Description)
	}
	if params.Ingredients != nil {
		recipe.Ingredients = model.JSONBStringArray(*params.Ingredients)
	}
	if params.Instructions != nil {
		recipe.Instructions = model.JSONBStringArray(*params.Instructions)
	}
	if params.PortionSize != nil {
		recipe.PortionSize = *params.PortionSize
	}
	if params.Category != nil {
		normalized := make(model.JSONBStringArray, 0, len(*params.Category))
		for _, c := range *params.Category {
			normalized = append(normalized, NormalizeCategory(c))
		}
		recipe.Category = normalized
	}
	if params.Difficulty != nil {
		recipe.Difficulty = strings.ToLower(*params.Difficulty)
	}
	if params.NutritionalInfo != nil {
		recipe.NutritionalInfo = model.NutritionalInfo{
			Calories: Round2(params.NutritionalInfo.Calories),
			Protein:  Round2(params.NutritionalInfo.Protein),
			Fat:      Round2(params.NutritionalInfo.Fat),
			Carbs:    Round2(params.NutritionalInfo.Carbs),
		}
	}
	if params.Image != nil {
		recipe.Image = *params.Image
	}
	if params.Tags != nil {
		recipe.Tags = model.JSONBStringArray(*params.Tags)
	}
	if params.Cuisine != nil {
		recipe.Cuisine = *params.Cuisine
	}

	if err := s.db.WithContext(ctx).Save(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete removes a recipe after an existence check.
func (s *RecipeService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&model.Recipe{}, "id = ?", id).Error
}

// Save adds the recipe to the user's favorites. Both sides of the
// relation are written in one transaction so they cannot diverge, and
// membership is checked first so the operation is idempotent.
func (s *RecipeService) Save(ctx context.Context, recipeID, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe model.Recipe
		if err := tx.First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var user model.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !user.SavedRecipes.Contains(recipeID) {
			user.SavedRecipes = append(user.SavedRecipes, recipeID)
			if err := tx.Model(&user).Update("saved_recipes", user.SavedRecipes).Error; err != nil {
				return err
			}
		}

		if !recipe.SavedBy.Contains(userID) {
			recipe.SavedBy = append(recipe.SavedBy, userID)
			if err := tx.Model(&recipe).Update("saved_by", recipe.SavedBy).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Unsave removes the recipe from the user's favorites, again updating
// both sides transactionally. Unsaving something never saved is a no-op.
func (s *RecipeService) Unsave(ctx context.Context, recipeID, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe model.Recipe
		if err := tx.First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var user model.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if user.SavedRecipes.Contains(recipeID) {
			if err := tx.Model(&user).Update("saved_recipes", user.SavedRecipes.Remove(recipeID)).Error; err != nil {
				return err
			}
		}

		if recipe.SavedBy.Contains(userID) {
			if err := tx.Model(&recipe).Update("saved_by", recipe.SavedBy.Remove(userID)).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// ListSaved returns every recipe whose saved_by set contains the user.
func (s *RecipeService) ListSaved(ctx context.Context, userID uuid.UUID) ([]model.Recipe, error) {
	query := s.db.WithContext(ctx).Order("created_at ASC")

	if s.db.Dialector.Name() == "postgres" {
		query = query.Where("saved_by @> ?", fmt.Sprintf(`["%s"]`, userID))
	} else {
		query = query.Where("saved_by LIKE ?", "%"+userID.String()+"%")
	}

	var recipes []model.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Rate upserts the caller's 1-5 rating and recomputes the recipe's
// average rating in the same transaction.
func (s *RecipeService) Rate(ctx context.Context, recipeID, userID uuid.UUID, rating int) (*model.Recipe, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}

	var recipe model.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing model.RecipeRating
		err := tx.First(&existing, "recipe_id = ? AND user_id = ?", recipeID, userID).Error
		switch {
		case err == nil:
			existing.Rating = rating
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&model.RecipeRating{
				RecipeID: recipeID,
				UserID:   userID,
				Rating:   rating,
			}).Error; err != nil {
				return err
			}
		default:
			return err
		}

		var avg float64
		if err := tx.Model(&model.RecipeRating{}).
			Where("recipe_id = ?", recipeID).
			Select("AVG(rating)").Scan(&avg).Error; err != nil {
			return err
		}

		recipe.AverageRating = Round2(avg)
		return tx.Model(&recipe).Update("average_rating", recipe.AverageRating).Error
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// GenerateImage asks the AI image modality for a photo of the recipe
// and overwrites the recipe's image field with the stored reference.
func (s *RecipeService) GenerateImage(ctx context.Context, recipeID uuid.UUID) (*model.Recipe, error) {
	if s.ai == nil || !s.ai.Configured() {
		return nil, ErrAINotConfigured
	}

	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	data, mimeType, err := s.ai.GenerateImage(ctx, buildImagePrompt(recipe))
	if err != nil {
		return nil, err
	}

	ref, err := s.images.Store(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}

	recipe.Image = ref
	if err := s.db.WithContext(ctx).Model(recipe).Update("image", ref).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

func buildRecipePrompt(params GenerateParams) string {
	var b strings.Builder
	b.WriteString("You are a professional chef and nutritionist. Create a recipe using these ingredients: ")
	b.WriteString(strings.Join(params.Ingredients, ", "))
	fmt.Fprintf(&b, ". The recipe should serve %s, be %s and have %s difficulty.\n\n", params.PortionSize, params.Category, params.Difficulty)
	b.WriteString(`Respond with a single JSON object and nothing else, using exactly this structure:
{
    "title": "Recipe name",
    "description": ["Short bullet point", "Another bullet point"],
    "ingredients": [{"item": "rice", "amount": "2", "unit": "cups"}],
    "instructions": ["Step 1", "Step 2"],
    "nutritionalInfo": {"calories": 0, "protein": 0, "fat": 0, "carbs": 0},
    "tags": ["tag"],
    "cuisine": "Cuisine name"
}

The nutritionalInfo values must be numbers per portion. Do not wrap the JSON in markdown fences.`)
	return b.String()
}

func buildImagePrompt(recipe *model.Recipe) string {
	prompt := fmt.Sprintf("A professional food photography shot of %s", strings.ToLower(recipe.Title))
	if recipe.Cuisine != "" {
		prompt += fmt.Sprintf(", %s style", strings.ToLower(recipe.Cuisine))
	}
	prompt += ", natural lighting, shallow depth of field, restaurant quality presentation"
	return prompt
}
