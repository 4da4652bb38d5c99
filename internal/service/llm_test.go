package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(apiBase string) *GeminiService {
	return &GeminiService{
		apiKey:     "test-key",
		apiBase:    apiBase,
		textModel:  "text-model",
		imageModel: "image-model",
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func TestGeminiConfigured(t *testing.T) {
	svc := newTestGemini("http://example.com")
	assert.True(t, svc.Configured())

	svc.apiKey = ""
	assert.False(t, svc.Configured())

	_, err := svc.GenerateText(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrAINotConfigured)

	_, _, err = svc.GenerateImage(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrAINotConfigured)
}

func TestGeminiGenerateText(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]interface{}{{"text": `{"title": "Soup"}`}},
				}},
			},
		})
	}))
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	text, err := svc.GenerateText(context.Background(), "make soup")
	require.NoError(t, err)
	assert.Equal(t, `{"title": "Soup"}`, text)
	assert.Equal(t, "/models/text-model:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
}

func TestGeminiGenerateTextUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	_, err := svc.GenerateText(context.Background(), "make soup")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestGeminiGenerateImage(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, []string{"TEXT", "IMAGE"}, req.GenerationConfig.ResponseModalities)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": "Here is your image."},
						{"inlineData": map[string]interface{}{
							"mimeType": "image/png",
							"data":     base64.StdEncoding.EncodeToString(payload),
						}},
					},
				}},
			},
		})
	}))
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	data, mime, err := svc.GenerateImage(context.Background(), "a bowl of soup")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "image/png", mime)
}

func TestGeminiGenerateImageNoImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]interface{}{{"text": "no can do"}},
				}},
			},
		})
	}))
	defer srv.Close()

	svc := newTestGemini(srv.URL)
	_, _, err := svc.GenerateImage(context.Background(), "a bowl of soup")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Contains(t, err.Error(), "no image returned")
}
