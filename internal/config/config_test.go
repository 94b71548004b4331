package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.InvitationTTL != "168h" {
		t.Errorf("InvitationTTL = %q, want %q", cfg.InvitationTTL, "168h")
	}
	if cfg.OTelEndpoint != "" {
		t.Errorf("OTelEndpoint = %q, want empty", cfg.OTelEndpoint)
	}
	if cfg.OTelServiceName != "tenant-control-plane" {
		t.Errorf("OTelServiceName = %q, want default", cfg.OTelServiceName)
	}
	if cfg.OTelInsecure {
		t.Error("OTelInsecure should default to false")
	}
}

func TestLoadEnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/tenancy")
	os.Setenv("APP_ENV", "production")
	os.Setenv("INVITATION_TTL", "72h")
	os.Setenv("OTEL_SERVICE_NAME", "tenancy-dev")
	os.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost:5432/tenancy" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want %q", cfg.Env, "production")
	}
	if cfg.InvitationTTL != "72h" {
		t.Errorf("InvitationTTL = %q, want %q", cfg.InvitationTTL, "72h")
	}
	if cfg.OTelServiceName != "tenancy-dev" {
		t.Errorf("OTelServiceName = %q, want %q", cfg.OTelServiceName, "tenancy-dev")
	}
	if !cfg.OTelInsecure {
		t.Error("OTelInsecure should be true")
	}
}

func TestInvitationLifetime(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"valid", "72h", 72 * time.Hour},
		{"invalid", "not-a-duration", 168 * time.Hour},
		{"zero", "0", 168 * time.Hour},
		{"negative", "-24h", 168 * time.Hour},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("INVITATION_TTL", tc.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.InvitationLifetime(); got != tc.want {
				t.Errorf("InvitationLifetime = %v, want %v", got, tc.want)
			}
		})
	}
}
