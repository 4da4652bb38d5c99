package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"veg", "vegetarian"},
		{"Vegetarian", "vegetarian"},
		{"VEGAN", "vegan"},
		{"non-veg", "non-vegetarian"},
		{"Non-Veg!", "non-vegetarian"},
		{"non vegetarian", "non-vegetarian"},
		{"spicy", "spicy"},
		{"  Spicy  ", "spicy"},
		{"keto", "other"},
		{"", "other"},
		{"123", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCategory(tt.input))
		})
	}
}

func TestCoerceNutrition(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"200", 200},
		{"200kcal", 200},
		{"approx. 12.5 g", 12.5},
		{"", 0},
		{"unknown", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CoerceNutrition(tt.input))
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 4.5, Round2(4.5))
	assert.Equal(t, 3.33, Round2(10.0/3.0))
	assert.Equal(t, 0.0, Round2(0))
}

func TestIngredientUnmarshal(t *testing.T) {
	t.Run("plain string", func(t *testing.T) {
		var ing Ingredient
		require.NoError(t, json.Unmarshal([]byte(`"a  pinch of salt"`), &ing))
		assert.Equal(t, "a pinch of salt", ing.Format())
	})

	t.Run("structured", func(t *testing.T) {
		var ing Ingredient
		require.NoError(t, json.Unmarshal([]byte(`{"item": "rice", "amount": "2", "unit": "cups"}`), &ing))
		assert.Equal(t, "2 cups rice", ing.Format())
	})

	t.Run("numeric amount", func(t *testing.T) {
		var ing Ingredient
		require.NoError(t, json.Unmarshal([]byte(`{"item": "carrot", "amount": 1, "unit": ""}`), &ing))
		assert.Equal(t, "1 carrot", ing.Format())
	})

	t.Run("missing parts omitted", func(t *testing.T) {
		var ing Ingredient
		require.NoError(t, json.Unmarshal([]byte(`{"item": "salt"}`), &ing))
		assert.Equal(t, "salt", ing.Format())
	})
}

func TestNutritionValueUnmarshal(t *testing.T) {
	var payload struct {
		Calories nutritionValue `json:"calories"`
		Protein  nutritionValue `json:"protein"`
		Fat      nutritionValue `json:"fat"`
		Carbs    nutritionValue `json:"carbs"`
	}

	raw := `{"calories": "200kcal", "protein": 6, "fat": "4.5g", "carbs": null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Equal(t, nutritionValue(200), payload.Calories)
	assert.Equal(t, nutritionValue(6), payload.Protein)
	assert.Equal(t, nutritionValue(4.5), payload.Fat)
	assert.Equal(t, nutritionValue(0), payload.Carbs)
}

func TestCategoryListUnmarshal(t *testing.T) {
	t.Run("scalar", func(t *testing.T) {
		var c CategoryList
		require.NoError(t, json.Unmarshal([]byte(`"veg"`), &c))
		assert.Equal(t, CategoryList{"veg"}, c)
	})

	t.Run("array", func(t *testing.T) {
		var c CategoryList
		require.NoError(t, json.Unmarshal([]byte(`["veg", "spicy"]`), &c))
		assert.Equal(t, CategoryList{"veg", "spicy"}, c)
	})

	t.Run("number rejected", func(t *testing.T) {
		var c CategoryList
		assert.Error(t, json.Unmarshal([]byte(`42`), &c))
	})
}
