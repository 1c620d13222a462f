package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Errorf("unexpected default port: %q", cfg.App.Port)
	}
	if cfg.Gateway.SegmentLimit != 1900 {
		t.Errorf("unexpected default segment limit: %d", cfg.Gateway.SegmentLimit)
	}
	if cfg.Assistant.MaxRequests != 5 {
		t.Errorf("unexpected default assistant budget: %d", cfg.Assistant.MaxRequests)
	}
	if cfg.Gateway.Configured() {
		t.Error("gateway must be off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GATEWAY_ENABLED", "true")
	t.Setenv("GATEWAY_TOKEN", "tok")
	t.Setenv("GATEWAY_GUILD_ID", "g-1")
	t.Setenv("GATEWAY_CHANNEL_ID", "c-1")
	t.Setenv("GATEWAY_SEND_DELAY_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.Gateway.Configured() {
		t.Fatal("gateway must be configured")
	}
	if got := cfg.Gateway.SendDelay(); got != 250*time.Millisecond {
		t.Errorf("unexpected send delay: %v", got)
	}
}

func TestGatewayConfigured(t *testing.T) {
	cases := []struct {
		name string
		cfg  GatewayConfig
		want bool
	}{
		{"complete", GatewayConfig{Enabled: true, Token: "t", GuildID: "g", ChannelID: "c"}, true},
		{"disabled", GatewayConfig{Token: "t", GuildID: "g", ChannelID: "c"}, false},
		{"no token", GatewayConfig{Enabled: true, GuildID: "g", ChannelID: "c"}, false},
		{"no channel", GatewayConfig{Enabled: true, Token: "t", GuildID: "g"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.Configured(); got != tc.want {
				t.Errorf("Configured() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAssistantWindowFallbacks(t *testing.T) {
	a := AssistantConfig{WindowSeconds: 0, MinSpacingSeconds: 0}
	if a.Window() != time.Minute {
		t.Errorf("zero window must fall back to a minute, got %v", a.Window())
	}
	if a.MinSpacing() != 0 {
		t.Errorf("zero spacing must stay zero, got %v", a.MinSpacing())
	}
}
