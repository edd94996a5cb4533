package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/dossier/internal/config"
)

func TestServerDefaults(t *testing.T) {
	var cfg config.ServerConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	read, header, write, idle := cfg.Timeouts()
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"addr", cfg.Addr(), "0.0.0.0:8080"},
		{"read", read, time.Minute},
		{"header", header, 10 * time.Second},
		{"write", write, 15 * time.Minute},
		{"idle", idle, 2 * time.Minute},
		{"max header bytes", cfg.MaxHeaderBytes(), 64 << 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestServerAddrIPv6(t *testing.T) {
	cfg := config.ServerConfig{Host: "::1", Port: 9000}
	if got := cfg.Addr(); got != "[::1]:9000" {
		t.Errorf("Addr() = %q, want [::1]:9000", got)
	}
}

func TestServerEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvServerPort, "9443")
	t.Setenv(config.EnvServerWriteTimeout, "0s")
	t.Setenv(config.EnvServerMaxHeaderKB, "16")

	var cfg config.ServerConfig
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	_, _, write, _ := cfg.Timeouts()
	if cfg.Port != 9443 {
		t.Errorf("port = %d, want 9443", cfg.Port)
	}
	if write != 0 {
		t.Errorf("write timeout = %v, want disabled", write)
	}
	if cfg.MaxHeaderBytes() != 16<<10 {
		t.Errorf("max header bytes = %d", cfg.MaxHeaderBytes())
	}
}

func TestServerMerge(t *testing.T) {
	base := config.ServerConfig{Host: "a", Port: 8080, ReadTimeout: "1m", IdleTimeout: "2m"}
	base.Merge(&config.ServerConfig{Port: 9090, IdleTimeout: "5m"})

	if base.Host != "a" || base.Port != 9090 || base.ReadTimeout != "1m" || base.IdleTimeout != "5m" {
		t.Errorf("merge result = %+v", base)
	}
}

func TestServerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ServerConfig
		want string
	}{
		{"port range", config.ServerConfig{Port: 70000}, "invalid port"},
		{"bad idle", config.ServerConfig{IdleTimeout: "later"}, "idle_timeout"},
		{"negative write", config.ServerConfig{WriteTimeout: "-1s"}, "write_timeout"},
		{"zero header", config.ServerConfig{ReadHeaderTimeout: "0s"}, "read_header_timeout"},
		{"header too large", config.ServerConfig{MaxHeaderKB: 4096}, "max_header_kb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
