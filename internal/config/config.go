// Package config loads the lighthousecore configuration file: storage
// backend selection, blob settings, the seeded facility list, and the
// location provider settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"lighthousecore/pkg/domain"
	"lighthousecore/pkg/geo"
)

// DefaultPath is where the CLI looks for the config file when no path is
// given.
const DefaultPath = "lighthousecore.yaml"

// Storage selects and parameterizes the persistence backend.
type Storage struct {
	Driver      string `yaml:"driver"`       // memory|sqlite|postgres|blob (default sqlite)
	SQLitePath  string `yaml:"sqlite_path"`  // driver=sqlite
	PostgresDSN string `yaml:"postgres_dsn"` // driver=postgres
	Blob        Blob   `yaml:"blob"`         // driver=blob
}

// Blob parameterizes the blob snapshot backend.
type Blob struct {
	Driver      string `yaml:"driver"` // fs|s3|memory (default fs)
	FSRoot      string `yaml:"fs_root"`
	SnapshotKey string `yaml:"snapshot_key"`
	S3          S3     `yaml:"s3"`
}

// S3 holds the S3-compatible endpoint settings for the blob driver.
type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	PathStyle       bool   `yaml:"path_style"`
}

// SeedLighthouse describes one facility in the seed list.
type SeedLighthouse struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Lat             float64  `yaml:"lat"`
	Lon             float64  `yaml:"lon"`
	ServiceRadiusKm float64  `yaml:"service_radius_km"`
	DropoffPoints   []string `yaml:"dropoff_points"`
}

// Location configures the origin resolver used for facility ranking. When a
// static coordinate is set it wins; otherwise a non-empty geocode address is
// resolved through Nominatim.
type Location struct {
	Static         *geo.Coordinate `yaml:"static,omitempty"`
	GeocodeAddress string          `yaml:"geocode_address,omitempty"`
}

// Config is the root of the configuration file.
type Config struct {
	Storage     Storage          `yaml:"storage"`
	Lighthouses []SeedLighthouse `yaml:"lighthouses"`
	Location    Location         `yaml:"location"`
}

// Load reads the config from the given path, falling back to DefaultPath.
// A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if len(cfg.Lighthouses) == 0 {
		cfg.Lighthouses = Default().Lighthouses
	}
	return &cfg, nil
}

// SeedEntities converts the configured seed list to domain lighthouses.
func (c *Config) SeedEntities() []domain.Lighthouse {
	out := make([]domain.Lighthouse, 0, len(c.Lighthouses))
	for _, seed := range c.Lighthouses {
		out = append(out, domain.Lighthouse{
			Base:            domain.Base{ID: seed.ID},
			Name:            seed.Name,
			Coordinate:      geo.Coordinate{Lat: seed.Lat, Lon: seed.Lon},
			ServiceRadiusKm: seed.ServiceRadiusKm,
			DropoffPoints:   seed.DropoffPoints,
		})
	}
	return out
}

// Default returns the built-in configuration: sqlite storage and the Cape
// Town facility seed list.
func Default() *Config {
	return &Config{
		Storage: Storage{Driver: "sqlite"},
		Lighthouses: []SeedLighthouse{
			{
				ID:              "lh-a",
				Name:            "Lighthouse A",
				Lat:             -33.93,
				Lon:             18.42,
				ServiceRadiusKm: 5,
				DropoffPoints:   []string{"Front gate", "Kitchen door"},
			},
			{
				ID:              "lh-b",
				Name:            "Lighthouse B",
				Lat:             -33.959,
				Lon:             18.467,
				ServiceRadiusKm: 5,
				DropoffPoints:   []string{"Community hall"},
			},
		},
	}
}

// Apply exports the storage selection to the environment variables consumed
// by core.OpenPersistentStore and blob.Open, so file configuration and
// environment overrides flow through one code path.
func (c *Config) Apply() error {
	set := func(key, value string) error {
		if value == "" {
			return nil
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	}
	pairs := [][2]string{
		{"LIGHTHOUSECORE_STORAGE_DRIVER", c.Storage.Driver},
		{"LIGHTHOUSECORE_SQLITE_PATH", c.Storage.SQLitePath},
		{"LIGHTHOUSECORE_POSTGRES_DSN", c.Storage.PostgresDSN},
		{"LIGHTHOUSECORE_BLOB_DRIVER", c.Storage.Blob.Driver},
		{"LIGHTHOUSECORE_BLOB_FS_ROOT", c.Storage.Blob.FSRoot},
		{"LIGHTHOUSECORE_BLOB_SNAPSHOT_KEY", c.Storage.Blob.SnapshotKey},
		{"LIGHTHOUSECORE_BLOB_S3_BUCKET", c.Storage.Blob.S3.Bucket},
		{"LIGHTHOUSECORE_BLOB_S3_REGION", c.Storage.Blob.S3.Region},
		{"LIGHTHOUSECORE_BLOB_S3_ENDPOINT", c.Storage.Blob.S3.Endpoint},
		{"LIGHTHOUSECORE_BLOB_S3_ACCESS_KEY_ID", c.Storage.Blob.S3.AccessKeyID},
		{"LIGHTHOUSECORE_BLOB_S3_SECRET_ACCESS_KEY", c.Storage.Blob.S3.SecretAccessKey},
		{"LIGHTHOUSECORE_BLOB_S3_SESSION_TOKEN", c.Storage.Blob.S3.SessionToken},
	}
	if c.Storage.Blob.S3.PathStyle {
		pairs = append(pairs, [2]string{"LIGHTHOUSECORE_BLOB_S3_PATH_STYLE", "true"})
	}
	for _, p := range pairs {
		if err := set(p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}
