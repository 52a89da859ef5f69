package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Request   RequestConfig   `yaml:"request"`
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Geodata   GeodataConfig   `yaml:"geodata"`
	Placement PlacementConfig `yaml:"placement"`
	Registry  RegistryConfig  `yaml:"registry"`
	Triggers  TriggersConfig  `yaml:"triggers"`
	Sensor    SensorConfig    `yaml:"sensor"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries   int           `yaml:"retries"`
	Timeout   Duration      `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Backoff   BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path                string   `yaml:"path"`
	SightingsMaxAge     Duration `yaml:"sightings_max_age"`    // 0 keeps the history forever
	MaintenanceInterval Duration `yaml:"maintenance_interval"` // how often pruning runs while serving
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	MaxAge Duration `yaml:"max_age"` // Entries older than this are pruned at startup
}

// GeodataConfig holds the Wikipedia geosearch query parameters.
type GeodataConfig struct {
	Endpoint  string   `yaml:"endpoint"`
	Radius    Distance `yaml:"radius"`     // ggsradius, Wikipedia caps it at 10km
	Limit     int      `yaml:"limit"`      // ggslimit / colimit / pilimit
	ThumbSize int      `yaml:"thumb_size"` // pithumbsize in pixels
}

// PlacementConfig holds the constants of the placement transform.
type PlacementConfig struct {
	HorizontalAxis  string  `yaml:"horizontal_axis"`  // "x" or "y"
	TiltBase        float64 `yaml:"tilt_base"`        // radians
	TiltDivisor     float64 `yaml:"tilt_divisor"`     // meters per radian of extra tilt
	DistanceDivisor float64 `yaml:"distance_divisor"` // meters per scene unit
}

// RegistryConfig holds the sight registry settings.
type RegistryConfig struct {
	Policy string `yaml:"policy"` // "grow", "batch"
}

// TriggersConfig holds batch trigger thresholds.
type TriggersConfig struct {
	MinDistance Distance `yaml:"min_distance"`
}

// SensorConfig holds settings for the location/heading source.
type SensorConfig struct {
	Provider string           `yaml:"provider"` // "mock", "remote"
	Mock     MockSensorConfig `yaml:"mock"`
}

// MockSensorConfig holds settings for the simulated sensor.
type MockSensorConfig struct {
	StartLat         float64  `yaml:"start_lat"`
	StartLon         float64  `yaml:"start_lon"`
	StartHeading     float64  `yaml:"start_heading"`
	HeadingJitter    float64  `yaml:"heading_jitter"`     // degrees, uniform +/-
	FirstSampleError float64  `yaml:"first_sample_error"` // degrees added to the first reading
	HeadingInterval  Duration `yaml:"heading_interval"`
	RelocateInterval Duration `yaml:"relocate_interval"` // 0 disables walking
	WalkSpeed        float64  `yaml:"walk_speed"`        // m/s along start_heading
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Retries:   3,
			Timeout:   Duration(30 * time.Second),
			UserAgent: "",
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(30 * time.Second),
			},
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path:                "./data/sightseer.db",
			SightingsMaxAge:     Duration(30 * Day),
			MaintenanceInterval: Duration(6 * time.Hour),
		},
		Server: ServerConfig{
			Address: "localhost:1921",
		},
		Cache: CacheConfig{
			MaxAge: Duration(7 * Day),
		},
		Geodata: GeodataConfig{
			Endpoint:  "https://en.wikipedia.org/w/api.php",
			Radius:    Distance(10000),
			Limit:     50,
			ThumbSize: 500,
		},
		Placement: PlacementConfig{
			HorizontalAxis:  "x",
			TiltBase:        -0.2,
			TiltDivisor:     600,
			DistanceDivisor: 50,
		},
		Registry: RegistryConfig{
			Policy: "grow",
		},
		Triggers: TriggersConfig{
			MinDistance: Distance(0),
		},
		Sensor: SensorConfig{
			Provider: "mock",
			Mock: MockSensorConfig{
				StartLat:         52.5163,
				StartLon:         13.3777,
				StartHeading:     90.0,
				HeadingJitter:    2.0,
				FirstSampleError: 35.0,
				HeadingInterval:  Duration(200 * time.Millisecond),
				RelocateInterval: Duration(0),
				WalkSpeed:        1.4,
			},
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	// Env overrides are applied in memory only
	if v := os.Getenv("SIGHTSEER_GEODATA_ENDPOINT"); v != "" {
		cfg.Geodata.Endpoint = v
	}
	if v := os.Getenv("SIGHTSEER_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	var errs []error

	switch c.Placement.HorizontalAxis {
	case "x", "y":
	default:
		errs = append(errs, fmt.Errorf("placement.horizontal_axis must be x or y, got %q", c.Placement.HorizontalAxis))
	}
	if c.Placement.TiltDivisor == 0 {
		errs = append(errs, errors.New("placement.tilt_divisor must be non-zero"))
	}
	if c.Placement.DistanceDivisor == 0 {
		errs = append(errs, errors.New("placement.distance_divisor must be non-zero"))
	}
	switch c.Registry.Policy {
	case "grow", "batch":
	default:
		errs = append(errs, fmt.Errorf("registry.policy must be grow or batch, got %q", c.Registry.Policy))
	}
	switch c.Sensor.Provider {
	case "mock", "remote":
	default:
		errs = append(errs, fmt.Errorf("sensor.provider must be mock or remote, got %q", c.Sensor.Provider))
	}
	if c.Geodata.Limit <= 0 {
		errs = append(errs, errors.New("geodata.limit must be positive"))
	}
	if c.Geodata.Radius <= 0 {
		errs = append(errs, errors.New("geodata.radius must be positive"))
	}
	if c.DB.MaintenanceInterval <= 0 {
		errs = append(errs, errors.New("db.maintenance_interval must be positive"))
	}
	if c.Geodata.ThumbSize < 0 {
		errs = append(errs, errors.New("geodata.thumb_size must not be negative"))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Sightseer Configuration
# -----------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), nm (nautical miles), ft (feet)

`)
	data = append(header, data...)

	reAxis := regexp.MustCompile(`(?m)^(\s+)horizontal_axis:`)
	data = reAxis.ReplaceAll(data, []byte("${1}# Options: x, y (compass rotation axis)\n${1}horizontal_axis:"))

	rePolicy := regexp.MustCompile(`(?m)^(\s+)policy:`)
	data = rePolicy.ReplaceAll(data, []byte("${1}# Options: grow, batch\n${1}policy:"))

	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: mock, remote\n${1}provider:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
