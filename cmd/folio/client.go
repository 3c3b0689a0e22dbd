package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kalambet/folio/internal/config"
	"github.com/kalambet/folio/internal/profile"
	"github.com/kalambet/folio/internal/query"
)

// apiClient talks to a running folio server.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newClient(baseURL string, httpClient *http.Client) *apiClient {
	return &apiClient{baseURL: baseURL, httpClient: httpClient}
}

var newAPIClient = func() (*apiClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return newClient(cfg.Server.BaseURL(), &http.Client{Timeout: 30 * time.Second}), nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable, is folio running? (%w)", err)
	}
	return resp, nil
}

func (c *apiClient) get(ctx context.Context, path string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, v)
}

func (c *apiClient) health(ctx context.Context) error {
	var status map[string]string
	return c.get(ctx, "/health", &status)
}

func (c *apiClient) listProfiles(ctx context.Context) ([]profile.Profile, error) {
	var profiles []profile.Profile
	err := c.get(ctx, "/api/profile", &profiles)
	return profiles, err
}

func (c *apiClient) getProfile(ctx context.Context, id string) (profile.Profile, error) {
	var p profile.Profile
	err := c.get(ctx, "/api/profile/"+url.PathEscape(id), &p)
	return p, err
}

func (c *apiClient) deleteProfile(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/profile/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

func (c *apiClient) projectsBySkill(ctx context.Context, skill string) ([]query.AnnotatedProject, error) {
	var projects []query.AnnotatedProject
	err := c.get(ctx, "/api/projects?"+url.Values{"skill": {skill}}.Encode(), &projects)
	return projects, err
}

func (c *apiClient) topSkills(ctx context.Context) ([]query.SkillCount, error) {
	var skills []query.SkillCount
	err := c.get(ctx, "/api/skills/top", &skills)
	return skills, err
}

func (c *apiClient) search(ctx context.Context, q string) ([]profile.Profile, error) {
	var profiles []profile.Profile
	err := c.get(ctx, "/api/search?"+url.Values{"q": {q}}.Encode(), &profiles)
	return profiles, err
}

// apiError mirrors the server's error body.
type apiError struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// decodeJSON closes the body. A nil v discards a successful response.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("server returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		var e apiError
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
