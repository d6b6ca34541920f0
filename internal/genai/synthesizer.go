// Package genai fabricates best-effort generic product records from a
// text-completion model when no real catalog data exists.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"freshkeeper/internal/models"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 8 * time.Second
	temperature    = 0.4
)

var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Synthesizer calls a chat-completion endpoint. A missing API key or any
// upstream or parse failure yields (nil, error); callers treat that as
// "tier produced nothing", never as fatal.
type Synthesizer struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewSynthesizer(baseURL, apiKey, model string, timeout time.Duration) *Synthesizer {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Synthesizer{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// generatedPayload is the JSON schema the prompt demands from the model.
type generatedPayload struct {
	Name            string             `json:"name"`
	Brand           *string            `json:"brand"`
	Category        string             `json:"category"`
	Subcategory     string             `json:"subcategory"`
	Description     string             `json:"description"`
	Ingredients     *string            `json:"ingredients"`
	Allergens       []string           `json:"allergens"`
	NutritionalInfo map[string]float64 `json:"nutritionalInfo"`
}

// GenerateGenericProduct asks the model for a brand-agnostic estimate of
// the queried product. The result is always unverified and carries no
// brand even when the query names one.
func (s *Synthesizer) GenerateGenericProduct(ctx context.Context, query, language string) (*models.Product, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("generative model API key not configured")
	}

	payload := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(language)},
			{Role: "user", Content: userPrompt(query, language)},
		},
		Temperature: temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: completion endpoint returned status %d", models.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion response carried no choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("completion response was empty")
	}

	generated, err := parseGenerated(content)
	if err != nil {
		return nil, err
	}
	return toProduct(generated), nil
}

// parseGenerated is a two-stage parser: strict JSON first, then the first
// brace-delimited block when the model wrapped the object in prose.
func parseGenerated(content string) (*generatedPayload, error) {
	var payload generatedPayload
	if err := json.Unmarshal([]byte(content), &payload); err == nil && payload.Name != "" {
		return &payload, nil
	}
	block := jsonBlockPattern.FindString(content)
	if block == "" {
		return nil, fmt.Errorf("completion contained no JSON object")
	}
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse extracted JSON block: %w", err)
	}
	if payload.Name == "" {
		return nil, fmt.Errorf("generated product missing a name")
	}
	return &payload, nil
}

func toProduct(payload *generatedPayload) *models.Product {
	now := time.Now()
	product := &models.Product{
		ID:          uuid.New(),
		Name:        payload.Name,
		Brand:       nil,
		Category:    optional(payload.Category),
		Subcategory: optional(payload.Subcategory),
		Description: optional(payload.Description),
		Allergens:   payload.Allergens,
		Source:      models.SourceGenerative,
		IsVerified:  false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if payload.Ingredients != nil && strings.TrimSpace(*payload.Ingredients) != "" {
		product.Ingredients = payload.Ingredients
	}
	if product.Allergens == nil {
		product.Allergens = []string{}
	}
	if len(payload.NutritionalInfo) > 0 {
		product.NutritionalInfo = &models.NutritionalInfo{
			Calories:      numField(payload.NutritionalInfo, "calories"),
			Protein:       numField(payload.NutritionalInfo, "protein"),
			Carbohydrates: numField(payload.NutritionalInfo, "carbohydrates"),
			Fat:           numField(payload.NutritionalInfo, "fat"),
			Fiber:         numField(payload.NutritionalInfo, "fiber"),
			Sugar:         numField(payload.NutritionalInfo, "sugar"),
			Sodium:        numField(payload.NutritionalInfo, "sodium"),
		}
	}
	return product
}

func numField(values map[string]float64, key string) *float64 {
	if value, ok := values[key]; ok {
		v := value
		return &v
	}
	return nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func systemPrompt(language string) string {
	if language == "es" {
		return "Eres un asistente experto en nutrición y supermercado. Solo generas productos genéricos cuando no hay datos reales. No mezcles datos inventados con fuentes reales. El resultado debe ser plausible pero estimado. No inventes marcas ni datos excesivamente específicos. Devuelve SOLO JSON válido con la estructura exacta solicitada."
	}
	return "You are a nutrition and grocery expert. Only generate generic products when no real data exists. Do not mix invented data with real sources. Output should be plausible but estimated. Do not invent brands or overly specific data. Return ONLY valid JSON with the exact required structure."
}

func userPrompt(query, language string) string {
	schema := `{
  "name": "...",
  "brand": null,
  "category": "...",
  "subcategory": "...",
  "description": "...",
  "nutritionalInfo": { "calories": 0, "protein": 0, "carbohydrates": 0, "fat": 0, "fiber": 0, "sugar": 0, "sodium": 0 },
  "allergens": [],
  "ingredients": "..."
}`
	if language == "es" {
		return fmt.Sprintf(`Genera un objeto JSON con la siguiente estructura para un producto genérico no verificado basado en: %q.
IMPORTANTE: Si la entrada incluye una marca (ej: "Coca Cola", "Leche Pascual"), IGNORA LA MARCA y genera el producto genérico equivalente (ej: "Refresco de Cola", "Leche Entera").
%s
El resultado debe ser plausible pero puede ser estimado.
Si tiene marca, genera un nombre genérico.
No inventes datos excesivamente específicos.
Devuelve SOLO el JSON, sin texto adicional.`, query, schema)
	}
	return fmt.Sprintf(`Generate a JSON object with the following structure for an unverified generic product based on: %q.
IMPORTANT: If the input includes a brand (e.g., "Coca Cola", "Heinz Ketchup"), IGNORE THE BRAND and generate the equivalent generic product (e.g., "Cola Soda", "Ketchup").
%s
Output must be plausible but may be estimated.
If it has a brand, generate a generic name.
Avoid overly specific data.
Return ONLY the JSON, no additional text.`, query, schema)
}
