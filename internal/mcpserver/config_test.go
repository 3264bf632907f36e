package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"APICOMPILER_CACHE_ENABLED", "APICOMPILER_ALLOW_HTTPS", "APICOMPILER_VERBOSE",
		"APICOMPILER_MAX_REF_DEPTH", "APICOMPILER_ALLOW_PRIVATE_HOSTS", "APICOMPILER_MAX_INLINE_SIZE",
	} {
		t.Setenv(key, "")
	}

	c := loadConfig()
	assert.True(t, c.CacheEnabled)
	assert.True(t, c.AllowHTTPS)
	assert.False(t, c.Verbose)
	assert.Equal(t, 100, c.MaxRefDepth)
	assert.False(t, c.AllowPrivateHosts)
	assert.Equal(t, 10<<20, c.MaxInlineSize)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("APICOMPILER_CACHE_ENABLED", "false")
	t.Setenv("APICOMPILER_ALLOW_HTTPS", "0")
	t.Setenv("APICOMPILER_VERBOSE", "true")
	t.Setenv("APICOMPILER_MAX_REF_DEPTH", "7")
	t.Setenv("APICOMPILER_ALLOW_PRIVATE_HOSTS", "1")
	t.Setenv("APICOMPILER_MAX_INLINE_SIZE", "2048")

	c := loadConfig()
	assert.False(t, c.CacheEnabled)
	assert.False(t, c.AllowHTTPS)
	assert.True(t, c.Verbose)
	assert.Equal(t, 7, c.MaxRefDepth)
	assert.True(t, c.AllowPrivateHosts)
	assert.Equal(t, 2048, c.MaxInlineSize)
}

func TestEnvFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not a number", "lots"},
		{"zero", "0"},
		{"negative", "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APICOMPILER_TEST_INT", tt.value)
			assert.Equal(t, 42, envInt("APICOMPILER_TEST_INT", 42))
		})
	}

	t.Setenv("APICOMPILER_TEST_BOOL", "maybe")
	assert.True(t, envBool("APICOMPILER_TEST_BOOL", true))
}
