package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "https://examwizards.app", want: []string{"https://examwizards.app"}},
		{name: "trims and skips blanks", raw: " http://a.test , ,http://b.test ", want: []string{"http://a.test", "http://b.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOrigins(tt.raw))
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("SUBMIT_GRACE_SECONDS", "30")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")
	t.Setenv("MAX_DB_CONNS", "bad")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 30*time.Second, cfg.SubmitGrace)
	assert.Equal(t, 0.5, cfg.RateLimitRPS)
	assert.Equal(t, int32(16), cfg.MaxDBConns)
	assert.True(t, cfg.AutoMigrate)
}
