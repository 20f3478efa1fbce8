package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
)

// Config holds the parameters shared by the alert binaries.
type Config struct {
	// ServerAddress is the gRPC address of the arbitration service.
	ServerAddress string `yaml:"server_addr"`
	// HTTPAddress is the listen address of the responder gateway.
	HTTPAddress string `yaml:"http_addr"`
	// ResponseURL is the public link responders open to answer an alert.
	ResponseURL string `yaml:"response_url"`
	// LogLevel is the minimum level of emitted log entries.
	LogLevel string `yaml:"log_level"`
	// RecordsFile is an optional JSON-lines notification log on disk.
	RecordsFile string `yaml:"records_file"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// SMS configures the outbound messaging gateway.
	SMS SMS `yaml:"sms"`
	// Mongo configures the document store.
	Mongo Mongo `yaml:"mongo"`
	// Redis configures the event mirror.
	Redis Redis `yaml:"redis"`
	// Detection configures the accident-detection collaborator.
	Detection Detection `yaml:"detection"`
	// Dispatch configures recipient selection for new alerts.
	Dispatch Dispatch `yaml:"dispatch"`
	// Responders is a static responder directory.
	Responders []domain.Responder `yaml:"responders"`
}

// SMS holds messaging gateway credentials. Empty AccountSID disables delivery.
type SMS struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

// Enabled reports whether real SMS delivery is configured.
func (s SMS) Enabled() bool {
	return s.AccountSID != "" && s.AuthToken != ""
}

// Mongo holds document store settings. Empty URI disables the store.
type Mongo struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// Redis holds event mirror settings. Empty Address disables the mirror.
type Redis struct {
	Address  string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// Detection holds the static detector verdict.
type Detection struct {
	Verdict bool `yaml:"verdict"`
}

// Dispatch limits who gets notified about a new alert.
type Dispatch struct {
	// RadiusKM drops responders farther than this; zero means unlimited.
	RadiusKM float64 `yaml:"radius_km"`
	// MaxRecipients caps the number of notified responders; zero means unlimited.
	MaxRecipients int `yaml:"max_recipients"`
	// SpeedKMH is the average travel speed used for ETA estimates.
	SpeedKMH float64 `yaml:"speed_kmh"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "accirescue-settings.yaml"

	// DefaultHTTPAddress is the default responder gateway listen address.
	DefaultHTTPAddress = ":8000"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultMongoDatabase mirrors the database name used by the operator console.
	DefaultMongoDatabase = "AcciRescueDB"

	// DefaultRedisChannel is where broadcast events are mirrored.
	DefaultRedisChannel = "accirescue:response_update"

	// DefaultSpeedKMH is the average ambulance speed for ETA estimates.
	DefaultSpeedKMH = 40

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errResponderIDRequired is returned for directory entries without identity.
	errResponderIDRequired = errors.New("responder id must be provided")
	// errNegativeDispatchLimit is returned for negative dispatch limits.
	errNegativeDispatchLimit = errors.New("dispatch limits must not be negative")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(contents))), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may carry gateway credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
//
//nolint:cyclop // Flat list of independent checks.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.HTTPAddress == "" {
		settings.HTTPAddress = DefaultHTTPAddress
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.Mongo.URI != "" && settings.Mongo.Database == "" {
		settings.Mongo.Database = DefaultMongoDatabase
	}

	if settings.Redis.Address != "" && settings.Redis.Channel == "" {
		settings.Redis.Channel = DefaultRedisChannel
	}

	if settings.Dispatch.RadiusKM < 0 || settings.Dispatch.MaxRecipients < 0 {
		return errNegativeDispatchLimit
	}

	if settings.Dispatch.SpeedKMH <= 0 {
		settings.Dispatch.SpeedKMH = DefaultSpeedKMH
	}

	for i, r := range settings.Responders {
		if r.ID == "" {
			return fmt.Errorf("responder #%d: %w", i+1, errResponderIDRequired)
		}
	}

	if settings.ResponseURL == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(settings.ResponseURL); err != nil {
		return fmt.Errorf("invalid response URL: %w", err)
	}

	return nil
}
