package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	limits := RateLimitConfig{Max: 100, Window: time.Minute}
	for _, tt := range []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "Memory",
			cfg:  Config{RateLimit: limits, Storage: StorageMemory, SeedFile: "catalog.json", OperatorKeys: []string{"k"}},
		},
		{
			name:    "MemoryWithoutKeys",
			cfg:     Config{RateLimit: limits, Storage: StorageMemory, SeedFile: "catalog.json"},
			wantErr: "operator key",
		},
		{
			name:    "MemoryWithoutSeed",
			cfg:     Config{RateLimit: limits, Storage: StorageMemory, OperatorKeys: []string{"k"}},
			wantErr: "seed file",
		},
		{
			name: "Postgres",
			cfg:  Config{RateLimit: limits, Storage: StoragePostgres, DatabaseURL: "postgres://localhost/console"},
		},
		{
			name:    "PostgresWithoutURL",
			cfg:     Config{RateLimit: limits, Storage: StoragePostgres},
			wantErr: "database URL",
		},
		{
			name:    "NoRateLimit",
			cfg:     Config{Storage: StorageMemory, SeedFile: "catalog.json", OperatorKeys: []string{"k"}},
			wantErr: "rate limit",
		},
		{
			name:    "Unknown",
			cfg:     Config{RateLimit: limits, Storage: "redis"},
			wantErr: "unknown storage",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9000")

	cfg := Config{Addr: defaultAddr}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)

	cfg = Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://explicit/db"}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}
