package uplink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/vingarzan/homebridge-nibe/internal/infrastructure/config"
)

// Nibe Uplink API endpoints.
const (
	defaultBaseURL  = "https://api.nibeuplink.com"
	oauthTokenPath  = "/oauth/token" //nolint:gosec // URL path, not a credential
	oauthScope      = "READSYSTEM"
	requestTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20 // 1MB, service-info payloads are a few KB
)

// Client talks to the Nibe Uplink REST API on behalf of one registered
// application. Authentication is OAuth2 authorization-code with a persisted
// refresh token; the one-time auth code from the config is only consumed
// when no session exists yet.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client from the uplink configuration.
//
// Token acquisition order:
//  1. A token persisted in the session store from a previous run.
//  2. Exchange of the configured one-time authorization code.
//
// Either way the token is kept fresh by the oauth2 transport and written
// back to the session store on every refresh.
func NewClient(ctx context.Context, cfg config.UplinkConfig, store *SessionStore) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{oauthScope},
		Endpoint: oauth2.Endpoint{
			TokenURL:  baseURL + oauthTokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	tok, err := store.Load()
	if err != nil {
		return nil, err
	}

	if tok == nil {
		if cfg.AuthCode == "" {
			return nil, ErrNoSession
		}
		tok, err = oc.Exchange(ctx, cfg.AuthCode)
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code: %w", err)
		}
		if err := store.Save(tok); err != nil {
			return nil, err
		}
	}

	src := &persistingTokenSource{
		src:   oc.TokenSource(ctx, tok),
		store: store,
	}

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: &oauth2.Transport{Source: src},
			Timeout:   requestTimeout,
		},
	}, nil
}

// systemUnit is the wire shape of GET /api/v1/systems/{id}/units entries.
type systemUnit struct {
	SystemUnitID int    `json:"systemUnitId"`
	Name         string `json:"name"`
	Product      string `json:"product"`
}

// serviceCategory is the wire shape of service-info category entries.
type serviceCategory struct {
	CategoryID string             `json:"categoryId"`
	Name       string             `json:"name"`
	Parameters []serviceParameter `json:"parameters"`
}

// serviceParameter is the wire shape of a service-info parameter.
type serviceParameter struct {
	ParameterID  int64   `json:"parameterId"`
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	Designation  string  `json:"designation"`
	Unit         string  `json:"unit"`
	DisplayValue string  `json:"displayValue"`
	RawValue     float64 `json:"rawValue"`
}

// FetchSnapshot reads all units of the system and their service-info
// categories, assembling one complete Snapshot.
func (c *Client) FetchSnapshot(ctx context.Context, systemID int) (*Snapshot, error) {
	units, err := c.fetchUnits(ctx, systemID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		SystemID:  systemID,
		Units:     make([]Unit, 0, len(units)),
		FetchedAt: time.Now().UTC(),
	}

	for _, u := range units {
		cats, err := c.fetchCategories(ctx, systemID, u.SystemUnitID)
		if err != nil {
			return nil, fmt.Errorf("unit %d: %w", u.SystemUnitID, err)
		}

		unit := Unit{
			UnitID:     u.SystemUnitID,
			Name:       u.Name,
			Product:    u.Product,
			Categories: make([]Category, 0, len(cats)),
		}
		for _, sc := range cats {
			unit.Categories = append(unit.Categories, toCategory(sc))
		}
		snap.Units = append(snap.Units, unit)
	}

	return snap, nil
}

// fetchUnits reads the unit list for a system.
func (c *Client) fetchUnits(ctx context.Context, systemID int) ([]systemUnit, error) {
	var units []systemUnit
	path := fmt.Sprintf("/api/v1/systems/%d/units", systemID)
	if err := c.getJSON(ctx, path, nil, &units); err != nil {
		return nil, fmt.Errorf("fetching units: %w", err)
	}
	return units, nil
}

// fetchCategories reads the service-info categories of one unit, with
// parameters included.
func (c *Client) fetchCategories(ctx context.Context, systemID, unitID int) ([]serviceCategory, error) {
	var cats []serviceCategory
	path := fmt.Sprintf("/api/v1/systems/%d/serviceinfo/categories", systemID)
	query := url.Values{
		"systemUnitId": {strconv.Itoa(unitID)},
		"parameters":   {"true"},
	}
	if err := c.getJSON(ctx, path, query, &cats); err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	return cats, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Nothing useful to do with a close error

	body := io.LimitReader(resp.Body, maxResponseSize)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: unexpected status %d", ErrRequestFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrRequestFailed, err)
	}

	return nil
}

// toCategory converts a wire category into the snapshot model.
//
// The parameter key is the designation when present ("COUNTRY",
// "SERIAL_NUMBER", ...) and otherwise the numeric parameter ID; service-info
// identity parameters carry designations while plain sensor readings
// usually do not.
func toCategory(sc serviceCategory) Category {
	cat := Category{
		ID:   sc.CategoryID,
		Name: sc.Name,
	}

	if sc.Parameters == nil {
		return cat
	}

	cat.Parameters = make([]Parameter, 0, len(sc.Parameters))
	for _, sp := range sc.Parameters {
		key := sp.Designation
		if key == "" {
			key = strconv.FormatInt(sp.ParameterID, 10)
		}
		name := sp.Title
		if name == "" {
			name = sp.Name
		}
		cat.Parameters = append(cat.Parameters, Parameter{
			Key:          key,
			Name:         name,
			DisplayValue: sp.DisplayValue,
			RawValue:     sp.RawValue,
			Unit:         sp.Unit,
		})
	}

	return cat
}
