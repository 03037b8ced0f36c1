package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vingarzan/homebridge-nibe/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "nibebridge-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"entity config", topics.EntityConfig("abc-123"), "nibe/entity/abc-123/config"},
		{"entity state", topics.EntityState("abc-123"), "nibe/entity/abc-123/state"},
		{"system status", topics.SystemStatus(), "nibe/system/status"},
		{"system refresh", topics.SystemRefresh(), "nibe/system/refresh"},
		{"all entity configs", topics.AllEntityConfigs(), "nibe/entity/+/config"},
		{"all entity states", topics.AllEntityStates(), "nibe/entity/+/state"},
		{"all topics", topics.AllTopics(), "nibe/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

// =============================================================================
// Options Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "bridge"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("len(Servers) = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want tcp scheme", got)
	}
	if opts.ClientID != "nibebridge-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "bridge" {
		t.Errorf("Username = %q", opts.Username)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect not enabled")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].String(); got != "ssl://127.0.0.1:8883" {
		t.Errorf("broker URL = %q, want ssl scheme", got)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config missing or below minimum version")
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("nibebridge")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, `"client_id":"nibebridge"`) {
		t.Errorf("online payload = %s", online)
	}

	offline := buildOfflinePayload("nibebridge")
	if !strings.Contains(offline, `"status":"offline"`) || !strings.Contains(offline, "graceful_shutdown") {
		t.Errorf("offline payload = %s", offline)
	}
}

// =============================================================================
// Validation Tests (no broker required)
// =============================================================================

func TestPublishValidation(t *testing.T) {
	client := &Client{cfg: testConfig()}

	if err := client.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Publish("nibe/system/status", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad QoS error = %v, want ErrInvalidQoS", err)
	}
	big := make([]byte, maxPayloadSize+1)
	if err := client.Publish("nibe/system/status", big, 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversize payload error = %v, want ErrPublishFailed", err)
	}
	if err := client.Publish("nibe/system/status", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected publish error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := &Client{
		cfg:           testConfig(),
		subscriptions: make(map[string]subscription),
	}
	handler := func(topic string, payload []byte) error { return nil }

	if err := client.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Subscribe("nibe/#", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad QoS error = %v, want ErrInvalidQoS", err)
	}
	if err := client.Subscribe("nibe/#", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v, want ErrSubscribeFailed", err)
	}
	if err := client.Subscribe("nibe/#", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected subscribe error = %v, want ErrNotConnected", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Error("failed subscriptions must not be tracked")
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	client := &Client{
		cfg:           testConfig(),
		subscriptions: make(map[string]subscription),
	}

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Unsubscribe("nibe/#"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected unsubscribe error = %v, want ErrNotConnected", err)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestHealthCheckValidation(t *testing.T) {
	client := &Client{cfg: testConfig()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}

	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}
