package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP Server
	Port string

	// Data endpoints
	APIBaseURL string

	// Page
	PageSurfaces []string
	RenderFormat string
	ChartWidth   int
	ChartHeight  int

	// Fixture endpoints served by this process
	ServeFixtures bool
	FixturesDir   string

	// Page loads per client per minute
	RateLimitPerMinute int
	// Peers allowed to set X-Forwarded-For / X-Real-IP
	TrustedProxies []string

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	port := getEnv("PORT", "8081")
	cfg := &Config{
		Port:       port,
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:"+port),

		PageSurfaces: getEnvList("PAGE_SURFACES", []string{"categoryChart", "accountChart"}),
		RenderFormat: strings.ToLower(getEnv("RENDER_FORMAT", "svg")),
		ChartWidth:   getEnvInt("CHART_WIDTH", 640),
		ChartHeight:  getEnvInt("CHART_HEIGHT", 400),

		ServeFixtures: getEnvBool("SERVE_FIXTURES", true),
		FixturesDir:   getEnv("FIXTURES_DIR", "./data"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES", []string{"127.0.0.0/8", "::1/128"}),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:  getEnv("LOG_FILE", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate API base URL
	if c.APIBaseURL == "" {
		errors = append(errors, "API base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	} else if parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	// Validate render format
	validFormats := []string{"svg", "png"}
	isValidFormat := false
	for _, f := range validFormats {
		if c.RenderFormat == f {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		errors = append(errors, fmt.Sprintf("invalid render format '%s': must be one of %v", c.RenderFormat, validFormats))
	}

	// Validate chart size
	if c.ChartWidth < 100 || c.ChartWidth > 4096 {
		errors = append(errors, fmt.Sprintf("invalid chart width %d: must be between 100 and 4096", c.ChartWidth))
	}
	if c.ChartHeight < 100 || c.ChartHeight > 4096 {
		errors = append(errors, fmt.Sprintf("invalid chart height %d: must be between 100 and 4096", c.ChartHeight))
	}

	// Validate fixtures directory if fixtures are served
	if c.ServeFixtures && c.FixturesDir != "" {
		if info, err := os.Stat(c.FixturesDir); err == nil && !info.IsDir() {
			errors = append(errors, fmt.Sprintf("fixtures path '%s' is not a directory", filepath.Clean(c.FixturesDir)))
		}
	}

	// Validate rate limit
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	} else if c.RateLimitPerMinute > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at most 10000", c.RateLimitPerMinute))
	}

	// Validate trusted proxy networks
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR network", cidr))
		}
	}

	// Validate log level
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value. An explicitly empty list can be
// set with a single comma.
func getEnvList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
