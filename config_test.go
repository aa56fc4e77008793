package streettracker

import (
	"os"
	"path/filepath"
	"testing"
)

const configSample = `
server:
  port: 9090
storage:
  database: coverage.db
  cacheDir: .cache
engine:
  maxGapSeconds: 300
  workers: 2
cities:
  - name: Springfield
    network: data/springfield.geojson
    bbox: [-0.1, -0.1, 0.1, 0.1]
    matchRadiusM: 12
  - name: shelbyville
    network: data/shelbyville.geojson
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return path
}

func preserveConfig(t *testing.T) {
	t.Helper()
	old := Config
	t.Cleanup(func() { Config = old })
}

func TestLoadAppConfig(t *testing.T) {
	preserveConfig(t)

	if err := LoadAppConfig(writeConfig(t, configSample)); err != nil {
		t.Fatalf("LoadAppConfig: %v", err)
	}

	if Config.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", Config.Server.Port)
	}
	if Config.Storage.DatabasePath != "coverage.db" {
		t.Errorf("expected database coverage.db, got %s", Config.Storage.DatabasePath)
	}

	// explicit values survive, gaps get defaults
	if Config.Engine.MaxGapSeconds != 300 || Config.Engine.Workers != 2 {
		t.Errorf("expected explicit engine values, got %+v", Config.Engine)
	}
	if Config.Engine.MinTripPoints != 10 || Config.Engine.GridCellM != 250 {
		t.Errorf("expected engine defaults, got %+v", Config.Engine)
	}

	if len(Config.Cities) != 2 {
		t.Fatalf("expected 2 cities, got %d", len(Config.Cities))
	}
	spring := Config.Cities[0]
	if spring.MatchRadiusM != 12 {
		t.Errorf("expected explicit radius 12, got %v", spring.MatchRadiusM)
	}
	if spring.MaxWalkSpeedMS != 2.5 || spring.MinSinuosity != 1.05 {
		t.Errorf("expected city defaults, got %+v", spring)
	}
	shelby := Config.Cities[1]
	if shelby.MatchRadiusM != 10 || shelby.MaxDirectDistanceM != 8000 {
		t.Errorf("expected default radius and distance, got %+v", shelby)
	}
}

func TestLoadAppConfig_DefaultPort(t *testing.T) {
	preserveConfig(t)

	path := writeConfig(t, "storage:\n  database: x.db\n")
	if err := LoadAppConfig(path); err != nil {
		t.Fatalf("LoadAppConfig: %v", err)
	}
	if Config.Server.Port != 16181 {
		t.Errorf("expected default port 16181, got %d", Config.Server.Port)
	}
}

func TestLoadAppConfig_MissingFile(t *testing.T) {
	preserveConfig(t)

	if err := LoadAppConfig(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadAppConfig_InvalidYAML(t *testing.T) {
	preserveConfig(t)

	if err := LoadAppConfig(writeConfig(t, "{{not yaml")); err == nil {
		t.Fatal("expected error for invalid yaml, got nil")
	}
}

func TestLoadAppConfig_ValidationFailure(t *testing.T) {
	preserveConfig(t)

	body := "cities:\n  - name: nowhere\n"
	if err := LoadAppConfig(writeConfig(t, body)); err == nil {
		t.Fatal("expected validation error for city without network, got nil")
	}
}

func TestAppConfigCity(t *testing.T) {
	cfg := AppConfig{Cities: []CityConfig{{Name: "london"}, {Name: "mumbai"}}}

	if c, ok := cfg.City("London"); !ok || c.Name != "london" {
		t.Errorf("expected case-insensitive lookup, got %+v ok=%v", c, ok)
	}
	if _, ok := cfg.City("atlantis"); ok {
		t.Error("expected miss for unknown city")
	}
}

func TestCityConfigBound(t *testing.T) {
	c := CityConfig{BBox: []float64{-0.35, 51.38, 0.15, 51.67}}
	b, ok := c.Bound()
	if !ok {
		t.Fatal("expected bound from 4-element bbox")
	}
	if b.Min[0] != -0.35 || b.Max[1] != 51.67 {
		t.Errorf("unexpected bound %+v", b)
	}

	if _, ok := (CityConfig{}).Bound(); ok {
		t.Error("expected no bound without bbox")
	}
}
