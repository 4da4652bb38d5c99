package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/forkful/backend/config"
)

// TextImageGenerator is the AI generation client used by the recipe
// service. Implementations must not be called when Configured is false.
type TextImageGenerator interface {
	// Configured reports whether a credential is present.
	Configured() bool
	// GenerateText sends a prompt and returns the model's raw text.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateImage sends a prompt to the image modality and returns
	// the first inline image payload with its mime type.
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
}

// GeminiService talks to the Gemini generateContent API over HTTP.
type GeminiService struct {
	apiKey     string
	apiBase    string
	textModel  string
	imageModel string
	client     *http.Client
}

// NewGeminiService creates a Gemini client from the configuration. The
// service is still constructed without a credential so that callers get
// a clean "not configured" failure instead of a nil dereference.
func NewGeminiService(cfg *config.Config) *GeminiService {
	return &GeminiService{
		apiKey:     cfg.GeminiAPIKey,
		apiBase:    cfg.GeminiAPIBase,
		textModel:  cfg.GeminiTextModel,
		imageModel: cfg.GeminiImageModel,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Configured implements TextImageGenerator.
func (s *GeminiService) Configured() bool {
	return s.apiKey != ""
}

// geminiPart is one part of a generateContent request or response.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateText implements TextImageGenerator.
func (s *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !s.Configured() {
		return "", ErrAINotConfigured
	}

	resp, err := s.generateContent(ctx, s.textModel, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no text in response", ErrUpstream)
}

// GenerateImage implements TextImageGenerator. It scans the response
// for the first inline image payload.
func (s *GeminiService) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	if !s.Configured() {
		return nil, "", ErrAINotConfigured
	}

	resp, err := s.generateContent(ctx, s.imageModel, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	})
	if err != nil {
		return nil, "", err
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, "", fmt.Errorf("%w: invalid inline image data: %v", ErrUpstream, err)
			}
			return data, part.InlineData.MimeType, nil
		}
	}
	return nil, "", fmt.Errorf("%w: no image returned", ErrUpstream)
}

func (s *GeminiService) generateContent(ctx context.Context, model string, reqBody geminiRequest) (*geminiResponse, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", s.apiBase, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	var result geminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrUpstream, err)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response", ErrUpstream)
	}

	return &result, nil
}
