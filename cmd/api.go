package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"key-manager/core/config"
	"key-manager/core/middleware/auth"
)

// apiClient talks to a running key-manager server. Slot state lives in the
// server process, so management commands go over its HTTP API instead of
// constructing a service locally.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient() *apiClient {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	return &apiClient{
		baseURL: "http://localhost:" + cfg.Server.Port,
		apiKey:  cfg.Server.ApiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// do performs a request and decodes the JSON response into out (if non-nil).
// Non-2xx responses are returned as errors carrying the server's message.
func (c *apiClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(auth.HeaderName, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("is the server running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil && errBody.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", errBody.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
