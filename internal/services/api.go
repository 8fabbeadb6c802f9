// API client for the tabx REST server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
)

const DefaultAPIBaseURL = "http://127.0.0.1:3000"

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// APIService is a typed client for the REST API. Requests are attempted once.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API client. An empty baseURL targets the default local server.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the server the client talks to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// ListSongs returns every song, newest first. A non-empty q filters with full-text search.
func (a *APIService) ListSongs(ctx context.Context, q string) ([]models.Song, error) {
	path := "/api/songs"
	if q = strings.TrimSpace(q); q != "" {
		path += "?q=" + url.QueryEscape(q)
	}

	var songs []models.Song
	if err := a.do(ctx, http.MethodGet, path, nil, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

func (a *APIService) GetSong(ctx context.Context, id int64) (models.Song, error) {
	var song models.Song
	err := a.do(ctx, http.MethodGet, songPath(id), nil, &song)
	return song, err
}

func (a *APIService) CreateSong(ctx context.Context, input models.CreateSong) (models.Song, error) {
	var song models.Song
	err := a.do(ctx, http.MethodPost, "/api/songs", input, &song)
	return song, err
}

func (a *APIService) UpdateSong(ctx context.Context, id int64, input models.UpdateSong) (models.Song, error) {
	var song models.Song
	err := a.do(ctx, http.MethodPut, songPath(id), input, &song)
	return song, err
}

func (a *APIService) DeleteSong(ctx context.Context, id int64) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := a.do(ctx, http.MethodDelete, songPath(id), nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: delete of song %d not acknowledged", shared.ErrServiceUnavailable, id)
	}
	return nil
}

func (a *APIService) ListChords(ctx context.Context) ([]models.ChordDiagram, error) {
	var chords []models.ChordDiagram
	if err := a.do(ctx, http.MethodGet, "/api/chords", nil, &chords); err != nil {
		return nil, err
	}
	return chords, nil
}

func (a *APIService) GetChord(ctx context.Context, name string) (models.ChordDiagram, error) {
	var chord models.ChordDiagram
	err := a.do(ctx, http.MethodGet, "/api/chords/"+url.PathEscape(name), nil, &chord)
	return chord, err
}

func (a *APIService) MatchChord(ctx context.Context, token string) (ChordMatch, error) {
	var match ChordMatch
	err := a.do(ctx, http.MethodGet, "/api/chords/match/"+url.PathEscape(token), nil, &match)
	return match, err
}

// SearchSongs asks the server's generative search for candidates. Nothing is saved.
func (a *APIService) SearchSongs(ctx context.Context, query string) ([]models.CandidateSong, error) {
	var songs []models.CandidateSong
	body := map[string]string{"query": query}
	if err := a.do(ctx, http.MethodPost, "/api/search-songs", body, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// Health checks that the server is reachable.
func (a *APIService) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := a.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("%w: status %q", shared.ErrServiceUnavailable, resp.Status)
	}
	return nil
}

func songPath(id int64) string {
	return "/api/songs/" + strconv.FormatInt(id, 10)
}

func (a *APIService) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeAPIError maps an error response back onto the shared error taxonomy.
func decodeAPIError(status int, data []byte) error {
	var body ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(status)
	}

	var sentinel error
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if len(body.Fields) > 0 {
			return &shared.ValidationError{Fields: body.Fields}
		}
		sentinel = shared.ErrValidation
	case http.StatusNotFound:
		sentinel = shared.ErrNotFound
	case http.StatusTooManyRequests:
		sentinel = shared.ErrRateLimited
	case http.StatusBadGateway:
		sentinel = shared.ErrUpstream
	case http.StatusServiceUnavailable:
		sentinel = shared.ErrServiceUnavailable
	default:
		sentinel = errors.New("server error")
	}
	return fmt.Errorf("%w: %s (http %d)", sentinel, body.Error, status)
}
