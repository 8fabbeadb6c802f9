package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
)

const (
	DefaultGeneratorURL   = "https://api.openai.com/v1/chat/completions"
	DefaultGeneratorModel = "gpt-4o-mini"
	defaultHTTPTimeout    = 30 * time.Second
	maxErrorBody          = 512
)

const searchSystemPrompt = `You are a music expert that helps find popular songs and creates realistic guitar tabs. When given a search query, provide information about well-known songs that match the query.

Generate 2-3 popular songs that match the search term. For each song, provide:
- title: The exact song title
- artist: The artist/band name
- key_signature: The song's key (e.g., "C", "Em", "F#")
- bpm: Approximate beats per minute
- duration_seconds: Approximate song duration in seconds
- tab_content: Generate realistic guitar tabs that include:
  * Chord progressions with chord names above lyrics
  * At least one verse and one chorus
  * Basic tablature notation using standard format (e|B|G|D|A|E)
  * Common chord fingerings
  * Make it educational and playable for guitarists

Focus on popular, well-known songs that guitarists commonly learn. Make the tabs beginner to intermediate friendly.`

// GeneratorConfig captures the settings needed to talk to the chat completions API.
type GeneratorConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// OpenAIGenerator asks an OpenAI-compatible chat completions endpoint for candidate songs.
type OpenAIGenerator struct {
	cfg        GeneratorConfig
	httpClient *http.Client
}

// GeneratorOption customizes the generator.
type GeneratorOption func(*OpenAIGenerator)

// WithGeneratorHTTPClient overrides the HTTP client. Bearer auth is layered over the client's transport.
func WithGeneratorHTTPClient(client *http.Client) GeneratorOption {
	return func(g *OpenAIGenerator) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// NewOpenAIGenerator constructs a generator. A missing API key is reported on every Generate call.
func NewOpenAIGenerator(cfg GeneratorConfig, opts ...GeneratorOption) *OpenAIGenerator {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeneratorURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeneratorModel
	}

	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	g := &OpenAIGenerator{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(g)
	}

	if cfg.APIKey != "" {
		base := g.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		g.httpClient = &http.Client{
			Timeout: g.httpClient.Timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"}),
				Base:   base,
			},
		}
	}
	return g
}

// Configured reports whether an API key is set.
func (g *OpenAIGenerator) Configured() bool {
	return g.cfg.APIKey != ""
}

type chatCompletionRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
			Refusal string  `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// generatedSong mirrors the response schema. Pointers distinguish a missing field from a zero value.
type generatedSong struct {
	Title           *string  `json:"title"`
	Artist          *string  `json:"artist"`
	KeySignature    *string  `json:"key_signature"`
	BPM             *float64 `json:"bpm"`
	DurationSeconds *float64 `json:"duration_seconds"`
	TabContent      *string  `json:"tab_content"`
}

type generatedResult struct {
	Songs *[]generatedSong `json:"songs"`
}

func songSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"songs": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":            map[string]string{"type": "string"},
						"artist":           map[string]string{"type": "string"},
						"key_signature":    map[string]string{"type": "string"},
						"bpm":              map[string]string{"type": "number"},
						"duration_seconds": map[string]string{"type": "number"},
						"tab_content":      map[string]string{"type": "string"},
					},
					"required":             []string{"title", "artist", "tab_content"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"songs"},
		"additionalProperties": false,
	}
}

// Generate issues one chat completion request. There are no automatic retries; every failure wraps
// [shared.ErrUpstream].
func (g *OpenAIGenerator) Generate(ctx context.Context, query string) ([]models.CandidateSong, error) {
	if !g.Configured() {
		return nil, fmt.Errorf("%w: %w: search api key not configured", shared.ErrUpstream, shared.ErrMissingCredentials)
	}

	payload := chatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: searchSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Find songs for: %q", query)},
		},
		ResponseFormat: responseFormat{
			Type:       "json_schema",
			JSONSchema: jsonSchema{Name: "song_search_results", Schema: songSchema(), Strict: true},
		},
	}

	content, err := g.complete(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrUpstream, err)
	}
	if content == "" {
		return []models.CandidateSong{}, nil
	}

	songs, err := decodeSongs(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrUpstream, err)
	}
	return songs, nil
}

// complete returns the message content of the first choice. An empty string means the model answered
// without content.
func (g *OpenAIGenerator) complete(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error (timeout=%s): %w", g.httpClient.Timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, snippet(body))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty choices")
	}

	msg := completion.Choices[0].Message
	if refusal := strings.TrimSpace(msg.Refusal); refusal != "" {
		return "", fmt.Errorf("model refused: %s", refusal)
	}
	if msg.Content == nil {
		return "", nil
	}
	return strings.TrimSpace(*msg.Content), nil
}

// decodeSongs parses and checks the model output against the response schema.
func decodeSongs(content string) ([]models.CandidateSong, error) {
	var result generatedResult
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &result); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if result.Songs == nil {
		return nil, errors.New("payload missing songs")
	}

	songs := make([]models.CandidateSong, 0, len(*result.Songs))
	for i, gs := range *result.Songs {
		if gs.Title == nil || gs.Artist == nil || gs.TabContent == nil {
			return nil, fmt.Errorf("song %d missing a required field", i)
		}

		song := models.CandidateSong{
			Title:        *gs.Title,
			Artist:       *gs.Artist,
			KeySignature: gs.KeySignature,
			TabContent:   *gs.TabContent,
		}
		if gs.BPM != nil {
			song.BPM = models.Ptr(int(math.Round(*gs.BPM)))
		}
		if gs.DurationSeconds != nil {
			song.DurationSeconds = models.Ptr(int(math.Round(*gs.DurationSeconds)))
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// stripCodeFence removes a surrounding ```json fence some models add despite the response format.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(trimmed), "```"))
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
