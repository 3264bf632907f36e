package mcpserver

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/erraggy/apicompiler/compiler"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Reader settings.
	CacheEnabled bool
	AllowHTTPS   bool
	Verbose      bool
	MaxRefDepth  int

	// AllowPrivateHosts lets URL inputs and remote references reach
	// loopback, private and link-local addresses.
	AllowPrivateHosts bool

	// MaxInlineSize bounds the content input, in bytes.
	MaxInlineSize int
}

// loadConfig reads configuration from APICOMPILER_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		CacheEnabled:      envBool("APICOMPILER_CACHE_ENABLED", true),
		AllowHTTPS:        envBool("APICOMPILER_ALLOW_HTTPS", true),
		Verbose:           envBool("APICOMPILER_VERBOSE", false),
		MaxRefDepth:       envInt("APICOMPILER_MAX_REF_DEPTH", compiler.DefaultMaxRefDepth),
		AllowPrivateHosts: envBool("APICOMPILER_ALLOW_PRIVATE_HOSTS", false),
		MaxInlineSize:     envInt("APICOMPILER_MAX_INLINE_SIZE", 10<<20),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}
