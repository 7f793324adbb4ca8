package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("expected sqlite default, got %s", cfg.Storage.Driver)
	}
	if len(cfg.Lighthouses) != 2 {
		t.Fatalf("expected default seed list, got %d entries", len(cfg.Lighthouses))
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  driver: blob
  blob:
    driver: s3
    snapshot_key: state/lighthousecore.json
    s3:
      bucket: meals
      region: af-south-1
lighthouses:
  - id: lh-test
    name: Test Lighthouse
    lat: -33.9
    lon: 18.4
    service_radius_km: 3
    dropoff_points: [Gate]
location:
  static: {lat: -33.92, lon: 18.42}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "blob" || cfg.Storage.Blob.S3.Bucket != "meals" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Location.Static == nil || cfg.Location.Static.Lat != -33.92 {
		t.Fatalf("unexpected location config: %+v", cfg.Location)
	}

	seeds := cfg.SeedEntities()
	if len(seeds) != 1 {
		t.Fatalf("expected 1 seed lighthouse, got %d", len(seeds))
	}
	if seeds[0].ID != "lh-test" || seeds[0].Coordinate.Lat != -33.9 {
		t.Fatalf("unexpected seed entity: %+v", seeds[0])
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage: ["), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyExportsEnvironment(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "memory"
	cfg.Storage.SQLitePath = ""
	t.Setenv("LIGHTHOUSECORE_STORAGE_DRIVER", "")
	if err := cfg.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := os.Getenv("LIGHTHOUSECORE_STORAGE_DRIVER"); got != "memory" {
		t.Fatalf("expected memory driver exported, got %q", got)
	}
}

func TestApplyExportsS3Credentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  driver: blob
  blob:
    driver: s3
    s3:
      bucket: meals
      region: af-south-1
      access_key_id: AKIAEXAMPLE
      secret_access_key: s3cret
      session_token: tok123
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Blob.S3.AccessKeyID != "AKIAEXAMPLE" || cfg.Storage.Blob.S3.SecretAccessKey != "s3cret" {
		t.Fatalf("unexpected credentials parsed: %+v", cfg.Storage.Blob.S3)
	}
	for _, key := range []string{
		"LIGHTHOUSECORE_BLOB_S3_ACCESS_KEY_ID",
		"LIGHTHOUSECORE_BLOB_S3_SECRET_ACCESS_KEY",
		"LIGHTHOUSECORE_BLOB_S3_SESSION_TOKEN",
	} {
		t.Setenv(key, "")
	}
	if err := cfg.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := os.Getenv("LIGHTHOUSECORE_BLOB_S3_ACCESS_KEY_ID"); got != "AKIAEXAMPLE" {
		t.Fatalf("expected access key exported, got %q", got)
	}
	if got := os.Getenv("LIGHTHOUSECORE_BLOB_S3_SECRET_ACCESS_KEY"); got != "s3cret" {
		t.Fatalf("expected secret key exported, got %q", got)
	}
	if got := os.Getenv("LIGHTHOUSECORE_BLOB_S3_SESSION_TOKEN"); got != "tok123" {
		t.Fatalf("expected session token exported, got %q", got)
	}
}
