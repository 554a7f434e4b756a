package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Port:               "8081",
		APIBaseURL:         "http://localhost:8081",
		PageSurfaces:       []string{"categoryChart", "accountChart"},
		RenderFormat:       "svg",
		ChartWidth:         640,
		ChartHeight:        400,
		ServeFixtures:      true,
		FixturesDir:        "./data",
		RateLimitPerMinute: 60,
		TrustedProxies:     []string{"127.0.0.0/8", "::1/128"},
		LogLevel:           "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid default config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "valid png with https api",
			mutate:  func(c *Config) { c.RenderFormat = "png"; c.APIBaseURL = "https://dash.example.com/base" },
			wantErr: false,
		},
		{
			name:    "no surfaces is valid",
			mutate:  func(c *Config) { c.PageSurfaces = nil },
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range low",
			mutate:      func(c *Config) { c.Port = "0" },
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty api base url",
			mutate:      func(c *Config) { c.APIBaseURL = "" },
			wantErr:     true,
			errorString: "API base URL cannot be empty",
		},
		{
			name:        "api base url with bad scheme",
			mutate:      func(c *Config) { c.APIBaseURL = "ftp://localhost" },
			wantErr:     true,
			errorString: "invalid API base URL scheme 'ftp'",
		},
		{
			name:        "api base url without host",
			mutate:      func(c *Config) { c.APIBaseURL = "http://" },
			wantErr:     true,
			errorString: "missing host",
		},
		{
			name:        "invalid render format",
			mutate:      func(c *Config) { c.RenderFormat = "gif" },
			wantErr:     true,
			errorString: "invalid render format 'gif': must be one of [svg png]",
		},
		{
			name:        "chart too narrow",
			mutate:      func(c *Config) { c.ChartWidth = 50 },
			wantErr:     true,
			errorString: "invalid chart width 50",
		},
		{
			name:        "chart too tall",
			mutate:      func(c *Config) { c.ChartHeight = 5000 },
			wantErr:     true,
			errorString: "invalid chart height 5000",
		},
		{
			name:        "rate limit zero",
			mutate:      func(c *Config) { c.RateLimitPerMinute = 0 },
			wantErr:     true,
			errorString: "invalid rate limit 0: must be at least 1",
		},
		{
			name:        "rate limit too high",
			mutate:      func(c *Config) { c.RateLimitPerMinute = 20000 },
			wantErr:     true,
			errorString: "invalid rate limit 20000: must be at most 10000",
		},
		{
			name:        "trusted proxy must be a network",
			mutate:      func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", "10.0.0.1"} },
			wantErr:     true,
			errorString: "invalid trusted proxy '10.0.0.1': must be a CIDR network",
		},
		{
			name:    "no trusted proxies",
			mutate:  func(c *Config) { c.TrustedProxies = nil },
			wantErr: false,
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "chatty" },
			wantErr:     true,
			errorString: "invalid log level 'chatty'",
		},
		{
			name: "multiple errors are combined",
			mutate: func(c *Config) {
				c.Port = "abc"
				c.RenderFormat = "gif"
			},
			wantErr:     true,
			errorString: "must be a number\n- invalid render format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else {
				if err != nil {
					t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestConfig_ValidateWithFiles(t *testing.T) {
	tmpDir := t.TempDir()

	notADir := filepath.Join(tmpDir, "fixtures.json")
	if err := os.WriteFile(notADir, []byte(`{}`), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	tests := []struct {
		name    string
		dir     string
		serve   bool
		wantErr bool
	}{
		{name: "existing directory", dir: tmpDir, serve: true, wantErr: false},
		{name: "missing directory uses built-in data", dir: filepath.Join(tmpDir, "missing"), serve: true, wantErr: false},
		{name: "file instead of directory", dir: notADir, serve: true, wantErr: true},
		{name: "file ignored when fixtures are off", dir: notADir, serve: false, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.FixturesDir = tt.dir
			cfg.ServeFixtures = tt.serve
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		for _, key := range []string{"PORT", "API_BASE_URL", "PAGE_SURFACES", "RENDER_FORMAT", "CHART_WIDTH",
			"CHART_HEIGHT", "SERVE_FIXTURES", "FIXTURES_DIR", "RATE_LIMIT_PER_MINUTE", "TRUSTED_PROXIES", "LOG_LEVEL", "LOG_FILE"} {
			t.Setenv(key, "")
		}

		cfg := Load()

		if cfg.Port != "8081" {
			t.Errorf("Load() Port = %v, want 8081", cfg.Port)
		}
		if cfg.APIBaseURL != "http://localhost:8081" {
			t.Errorf("Load() APIBaseURL = %v, want http://localhost:8081", cfg.APIBaseURL)
		}
		if !reflect.DeepEqual(cfg.PageSurfaces, []string{"categoryChart", "accountChart"}) {
			t.Errorf("Load() PageSurfaces = %v", cfg.PageSurfaces)
		}
		if cfg.RenderFormat != "svg" || cfg.ChartWidth != 640 || cfg.ChartHeight != 400 {
			t.Errorf("Load() render settings = %v %dx%d", cfg.RenderFormat, cfg.ChartWidth, cfg.ChartHeight)
		}
		if !cfg.ServeFixtures || cfg.FixturesDir != "./data" {
			t.Errorf("Load() fixtures = %v %v", cfg.ServeFixtures, cfg.FixturesDir)
		}
		if cfg.RateLimitPerMinute != 60 {
			t.Errorf("Load() RateLimitPerMinute = %v, want 60", cfg.RateLimitPerMinute)
		}
		if !reflect.DeepEqual(cfg.TrustedProxies, []string{"127.0.0.0/8", "::1/128"}) {
			t.Errorf("Load() TrustedProxies = %v, want loopback only", cfg.TrustedProxies)
		}
		if cfg.LogLevel != "info" || cfg.LogFile != "" {
			t.Errorf("Load() logging = %v %q", cfg.LogLevel, cfg.LogFile)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("defaults must validate: %v", err)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("API_BASE_URL", "")
		t.Setenv("PAGE_SURFACES", " accountChart , ,otherChart")
		t.Setenv("RENDER_FORMAT", "PNG")
		t.Setenv("CHART_WIDTH", "800")
		t.Setenv("SERVE_FIXTURES", "false")
		t.Setenv("TRUSTED_PROXIES", "10.1.0.0/16, 127.0.0.1/32")
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("LOG_FILE", "/tmp/cruscotto.log")

		cfg := Load()

		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.APIBaseURL != "http://localhost:9090" {
			t.Errorf("Load() APIBaseURL = %v, want it to follow PORT", cfg.APIBaseURL)
		}
		if !reflect.DeepEqual(cfg.PageSurfaces, []string{"accountChart", "otherChart"}) {
			t.Errorf("Load() PageSurfaces = %v", cfg.PageSurfaces)
		}
		if cfg.RenderFormat != "png" || cfg.ChartWidth != 800 {
			t.Errorf("Load() render = %v %d", cfg.RenderFormat, cfg.ChartWidth)
		}
		if cfg.ServeFixtures {
			t.Errorf("Load() ServeFixtures = true, want false")
		}
		if !reflect.DeepEqual(cfg.TrustedProxies, []string{"10.1.0.0/16", "127.0.0.1/32"}) {
			t.Errorf("Load() TrustedProxies = %v", cfg.TrustedProxies)
		}
		if cfg.LogLevel != "debug" || cfg.LogFile != "/tmp/cruscotto.log" {
			t.Errorf("Load() logging = %v %v", cfg.LogLevel, cfg.LogFile)
		}
	})

	t.Run("only commas yields no surfaces", func(t *testing.T) {
		t.Setenv("PAGE_SURFACES", ",")
		if got := Load().PageSurfaces; len(got) != 0 {
			t.Errorf("Load() PageSurfaces = %v, want empty", got)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("CHART_HEIGHT", "tall")
		t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")
		t.Setenv("SERVE_FIXTURES", "maybe")

		cfg := Load()

		if cfg.ChartHeight != 400 {
			t.Errorf("Load() ChartHeight = %v, want 400 (default for invalid input)", cfg.ChartHeight)
		}
		if cfg.RateLimitPerMinute != 60 {
			t.Errorf("Load() RateLimitPerMinute = %v, want 60 (default for invalid input)", cfg.RateLimitPerMinute)
		}
		if !cfg.ServeFixtures {
			t.Errorf("Load() ServeFixtures = false, want true (default for invalid input)")
		}
	})
}
