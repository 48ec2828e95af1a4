package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.True(t, config.EnableFormatting)
	assert.Equal(t, "America/New_York", config.TimeZone)
	assert.Equal(t, 3, config.RetryAttempts)
	assert.Equal(t, time.Second, config.RetryDelay)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID:     "id",
				ClientSecret: "secret",
				RefreshToken: "token",
			},
		},
		{
			name: "valid service account config",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
			},
		},
		{
			name:    "no auth method",
			config:  Config{},
			wantErr: "no authentication method",
		},
		{
			name: "both auth methods",
			config: Config{
				ClientID:           "id",
				ClientSecret:       "secret",
				RefreshToken:       "token",
				ServiceAccountPath: "/path/to/key.json",
			},
			wantErr: "multiple authentication methods",
		},
		{
			name: "negative retry attempts",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				RetryAttempts:      -1,
			},
			wantErr: "retry attempts cannot be negative",
		},
		{
			name: "negative retry delay",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				RetryDelay:         -time.Second,
			},
			wantErr: "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOCKBOX_SHEETS_CLIENT_ID", "id")
	t.Setenv("LOCKBOX_SHEETS_CLIENT_SECRET", "secret")
	t.Setenv("LOCKBOX_SHEETS_REFRESH_TOKEN", "token")
	t.Setenv("LOCKBOX_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("LOCKBOX_SHEETS_SPREADSHEET_NAME", "")

	var config Config
	require.NoError(t, config.LoadFromEnv())
	assert.Equal(t, "id", config.ClientID)
	assert.Equal(t, "Lockbox Reconciliation", config.SpreadsheetName)
}

func TestLoadFromEnvMissingAuth(t *testing.T) {
	t.Setenv("LOCKBOX_SHEETS_CLIENT_ID", "")
	t.Setenv("LOCKBOX_SHEETS_CLIENT_SECRET", "")
	t.Setenv("LOCKBOX_SHEETS_REFRESH_TOKEN", "")
	t.Setenv("LOCKBOX_SHEETS_SERVICE_ACCOUNT_PATH", "")

	var config Config
	assert.Error(t, config.LoadFromEnv())
}
