package uplink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/vingarzan/homebridge-nibe/internal/infrastructure/config"
)

// newTestServer serves a minimal Nibe Uplink API: token endpoint, one unit
// and one service-info category set.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "test-access",
			"refresh_token": "test-refresh",
			"token_type":    "Bearer",
			"expires_in":    1800,
		})
	})

	mux.HandleFunc("/api/v1/systems/123/units", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"systemUnitId": 0, "name": "F750", "product": "F750 CU 3x400V"},
		})
	})

	mux.HandleFunc("/api/v1/systems/123/serviceinfo/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("systemUnitId") != "0" {
			http.Error(w, "unknown unit", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"categoryId": "SYSTEM_INFO",
				"name":       "system info",
				"parameters": []map[string]any{
					{"parameterId": 0, "designation": "COUNTRY", "title": "country", "displayValue": "SE"},
					{"parameterId": 0, "designation": "SERIAL_NUMBER", "title": "serial number", "displayValue": "06545212345678"},
				},
			},
			{
				"categoryId": "STATUS",
				"name":       "status",
				"parameters": []map[string]any{
					{"parameterId": 40004, "title": "outdoor temp.", "unit": "°C", "displayValue": "2.1°C", "rawValue": 21},
				},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testUplinkConfig(srv *httptest.Server, sessionFile string) config.UplinkConfig {
	return config.UplinkConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/callback",
		AuthCode:     "auth-code",
		SystemID:     123,
		PollInterval: 60,
		SessionFile:  sessionFile,
		BaseURL:      srv.URL,
	}
}

func TestNewClient_ExchangesAuthCode(t *testing.T) {
	srv := newTestServer(t)
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	store := NewSessionStore(sessionFile)

	client, err := NewClient(context.Background(), testUplinkConfig(srv, sessionFile), store)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client == nil {
		t.Fatal("NewClient() returned nil client")
	}

	tok, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tok == nil || tok.RefreshToken != "test-refresh" {
		t.Errorf("persisted token = %+v, want refresh token %q", tok, "test-refresh")
	}
}

func TestNewClient_NoSessionNoAuthCode(t *testing.T) {
	srv := newTestServer(t)
	cfg := testUplinkConfig(srv, filepath.Join(t.TempDir(), "session.json"))
	cfg.AuthCode = ""

	_, err := NewClient(context.Background(), cfg, NewSessionStore(cfg.SessionFile))
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("NewClient() error = %v, want ErrNoSession", err)
	}
}

func TestNewClient_ReusesPersistedSession(t *testing.T) {
	srv := newTestServer(t)
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	store := NewSessionStore(sessionFile)

	if err := store.Save(&oauth2.Token{
		AccessToken:  "test-access",
		RefreshToken: "test-refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	cfg := testUplinkConfig(srv, sessionFile)
	cfg.AuthCode = "" // must not be needed when a session exists

	client, err := NewClient(context.Background(), cfg, store)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.FetchSnapshot(context.Background(), 123); err != nil {
		t.Errorf("FetchSnapshot() error = %v", err)
	}
}

func TestClient_FetchSnapshot(t *testing.T) {
	srv := newTestServer(t)
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	store := NewSessionStore(sessionFile)

	client, err := NewClient(context.Background(), testUplinkConfig(srv, sessionFile), store)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	snap, err := client.FetchSnapshot(context.Background(), 123)
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}

	if snap.SystemID != 123 {
		t.Errorf("SystemID = %d, want 123", snap.SystemID)
	}
	if snap.FetchedAt.IsZero() {
		t.Error("FetchedAt is zero")
	}
	if len(snap.Units) != 1 {
		t.Fatalf("len(Units) = %d, want 1", len(snap.Units))
	}

	unit := snap.Units[0]
	if unit.UnitID != 0 || unit.Name != "F750" {
		t.Errorf("unit = %+v, want UnitID 0 name F750", unit)
	}
	if len(unit.Categories) != 2 {
		t.Fatalf("len(Categories) = %d, want 2", len(unit.Categories))
	}

	info := unit.Categories[0]
	if info.ID != "SYSTEM_INFO" {
		t.Errorf("category ID = %q, want SYSTEM_INFO", info.ID)
	}
	if p, ok := info.Parameter("COUNTRY"); !ok || p.DisplayValue != "SE" {
		t.Errorf("COUNTRY parameter = %+v ok=%v, want display value SE", p, ok)
	}

	status := unit.Categories[1]
	if p, ok := status.Parameter("40004"); !ok || p.DisplayValue != "2.1°C" {
		t.Errorf("40004 parameter = %+v ok=%v, want display value 2.1°C", p, ok)
	}
}

func TestClient_FetchSnapshotUnknownSystem(t *testing.T) {
	srv := newTestServer(t)
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	store := NewSessionStore(sessionFile)

	client, err := NewClient(context.Background(), testUplinkConfig(srv, sessionFile), store)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.FetchSnapshot(context.Background(), 999); !errors.Is(err, ErrRequestFailed) {
		t.Errorf("FetchSnapshot(999) error = %v, want ErrRequestFailed", err)
	}
}
