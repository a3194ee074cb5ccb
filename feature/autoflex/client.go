package autoflex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"key-manager/core/utils"
	"key-manager/feature/keys/reconcile"

	"go.uber.org/zap"
)

// ErrSyncUnavailable indicates that the external inventory source could not
// produce a snapshot. Transport, authentication and decoding failures all
// collapse into this one condition.
var ErrSyncUnavailable = errors.New("external inventory source unavailable")

// Client supplies inventory snapshots from the external source of truth.
type Client interface {
	FetchSnapshot(ctx context.Context) ([]reconcile.ExternalVehicle, error)
}

const (
	// tokenValidity is how long an Autoflex token stays usable.
	tokenValidity = 30 * time.Minute
	// tokenMargin keeps a safety buffer before expiry.
	tokenMargin = 30 * time.Second
	// pageLimit bounds pagination against a misbehaving feed.
	pageLimit = 100
)

// APIClient is the HTTP implementation of Client against the Autoflex10 API.
type APIClient struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	apiURL      string
}

// NewClient creates an Autoflex API client.
func NewClient(cfg Config, logger *zap.Logger) *APIClient {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 15
	}
	return &APIClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(timeout) * time.Second},
		logger: logger,
	}
}

// authResponse is the authentication payload. The api_url field is the
// dynamic base for all subsequent data requests.
type authResponse struct {
	Token  string `json:"token"`
	ApiURL string `json:"api_url"`
	UserID string `json:"user_id"`
}

// vehiclePage is one page of the vehicle listing. Field values are left
// untyped: the feed mixes numbers, numeric strings and nulls.
type vehiclePage struct {
	Data     []map[string]any `json:"data"`
	NextPage bool             `json:"nextpage"`
}

// FetchSnapshot authenticates if needed, pages through the vehicle listing
// and returns the snapshot of unsold dealer-held vehicles. Entries without
// a license plate are skipped, missing or malformed prices coerce to 0, and
// the last of duplicate plates wins.
func (c *APIClient) FetchSnapshot(ctx context.Context) ([]reconcile.ExternalVehicle, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
	}

	entries := make(map[string]reconcile.ExternalVehicle)
	order := make([]string, 0)

	page := 1
	for {
		result, err := c.getVehicles(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
		}

		for _, raw := range result.Data {
			plate := utils.ToString(raw["license_plate"])
			key := reconcile.NormalizePlate(plate)
			if key == "" {
				continue
			}
			if utils.ToInt(raw["is_sold"]) == 1 {
				// Sold in Autoflex: not dealer-held inventory anymore.
				delete(entries, key)
				continue
			}
			if _, seen := entries[key]; !seen {
				order = append(order, key)
			}
			entries[key] = reconcile.ExternalVehicle{
				Plate:         plate,
				PurchasePrice: utils.ToFloat(raw["purchase_price"]),
			}
		}

		if !result.NextPage {
			break
		}
		page++
		if page > pageLimit {
			c.logger.Warn("Vehicle listing exceeded page limit", zap.Int("limit", pageLimit))
			break
		}
	}

	snapshot := make([]reconcile.ExternalVehicle, 0, len(entries))
	for _, key := range order {
		if entry, ok := entries[key]; ok {
			snapshot = append(snapshot, entry)
		}
	}

	c.logger.Debug("Fetched inventory snapshot",
		zap.Int("vehicles", len(snapshot)),
		zap.Int("pages", page),
	)
	return snapshot, nil
}

// ensureToken authenticates when no token is held or the held one is about
// to expire.
func (c *APIClient) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenMargin)) {
		return nil
	}
	return c.authenticate(ctx)
}

// authenticate obtains a token via GET /authenticate with credential query
// parameters, the way the Autoflex10 API expects them. Caller holds c.mu.
func (c *APIClient) authenticate(ctx context.Context) error {
	params := url.Values{}
	params.Set("api_key", c.cfg.ApiKey)
	params.Set("username", c.cfg.Username)
	params.Set("password", c.cfg.Password)
	if c.cfg.Organization != "" {
		params.Set("organization_name", c.cfg.Organization)
	}

	authURL := c.cfg.BaseURL + "/authenticate?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return fmt.Errorf("build authenticate request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authenticate request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to decode.
	case http.StatusUnauthorized:
		return errors.New("authentication failed: invalid credentials")
	case http.StatusAccepted:
		// The API signals rate limiting with 202 and a retry delay.
		return errors.New("authentication rate limited")
	default:
		return fmt.Errorf("authentication failed with status %d", resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("decode authenticate response: %w", err)
	}
	if auth.Token == "" {
		return errors.New("authenticate response carried no token")
	}

	c.token = auth.Token
	c.tokenExpiry = time.Now().Add(tokenValidity)
	if auth.ApiURL != "" {
		c.apiURL = auth.ApiURL
	} else {
		c.apiURL = c.cfg.BaseURL
	}

	c.logger.Info("Authenticated with Autoflex", zap.String("api_url", c.apiURL))
	return nil
}

// getVehicles fetches one page of the vehicle listing from the dynamic API
// URL, sending the token header.
func (c *APIClient) getVehicles(ctx context.Context, page int) (*vehiclePage, error) {
	c.mu.Lock()
	token, apiURL := c.token, c.apiURL
	c.mu.Unlock()

	params := url.Values{}
	params.Set("fields", "vehicle_id,license_plate,purchase_price,is_sold")
	params.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/vehicle?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build vehicle request: %w", err)
	}
	req.Header.Set("token", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vehicle request page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vehicle request page %d failed with status %d", page, resp.StatusCode)
	}

	var result vehiclePage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode vehicle page %d: %w", page, err)
	}
	return &result, nil
}
