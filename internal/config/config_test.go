package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
)

// TestValidate checks required fields, defaults and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	require.Error(t, Validate(new(Config)))

	// Bad socket.
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	// Bad response URL.
	require.Error(t, Validate(&Config{ServerAddress: "127.0.0.1:0", ResponseURL: "not a url"}))

	// Negative limits.
	require.Error(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Dispatch:      Dispatch{MaxRecipients: -1},
	}))

	// Responder without identity.
	require.Error(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Responders:    []domain.Responder{{Phone: "+100"}},
	}))

	// Defaults.
	settings := &Config{
		ServerAddress: "127.0.0.1:0",
		ResponseURL:   "https://respond.example.com/",
		Mongo:         Mongo{URI: "mongodb://localhost:27017"},
		Redis:         Redis{Address: "localhost:6379"},
	}

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultHTTPAddress, settings.HTTPAddress)
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, DefaultMongoDatabase, settings.Mongo.Database)
	require.Equal(t, DefaultRedisChannel, settings.Redis.Channel)
	require.InDelta(t, DefaultSpeedKMH, settings.Dispatch.SpeedKMH, 0.001)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := &Config{
		ServerAddress: "127.0.0.1:50051",
		ResponseURL:   "https://respond.local/",
		Responders: []domain.Responder{
			{
				ID:       "HospitalA",
				Role:     domain.RoleHospital,
				Phone:    "+10000000001",
				Location: domain.Location{Latitude: 12.9, Longitude: 77.6},
			},
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, settings.ResponseURL, loaded.ResponseURL)
	require.Equal(t, settings.Responders, loaded.Responders)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_ExpandsEnvironment verifies that secrets can come from the environment.
func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("ACCIRESCUE_TEST_TOKEN", "secret-token")

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := "server_addr: 127.0.0.1:50051\nsms:\n  account_sid: AC123\n  auth_token: ${ACCIRESCUE_TEST_TOKEN}\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "secret-token", loaded.SMS.AuthToken)
	require.True(t, loaded.SMS.Enabled())
}
