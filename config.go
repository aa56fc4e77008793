package streettracker

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0"`
}

type StorageConfig struct {
	DatabasePath string `yaml:"database"`
	CacheDir     string `yaml:"cacheDir"`
	ExportDir    string `yaml:"exportDir"`
	TracesDir    string `yaml:"tracesDir"`
}

type EngineConfig struct {
	MaxGapSeconds        int     `yaml:"maxGapSeconds" validate:"gte=0"`
	MaxGapMeters         float64 `yaml:"maxGapMeters" validate:"gte=0"`
	MinTripPoints        int     `yaml:"minTripPoints" validate:"gte=0"`
	TransitPointFraction float64 `yaml:"transitPointFraction" validate:"gte=0,lte=1"`
	MinMatchConfidence   float64 `yaml:"minMatchConfidence" validate:"gte=0,lte=1"`
	GapBridgePoints      int     `yaml:"gapBridgePoints" validate:"gte=0"`
	MinWalkDurationS     float64 `yaml:"minWalkDurationS" validate:"gte=0"`
	MinWalkDistanceM     float64 `yaml:"minWalkDistanceM" validate:"gte=0"`
	StraightLineMinM     float64 `yaml:"straightLineMinM" validate:"gte=0"`
	CrawlDirectMinM      float64 `yaml:"crawlDirectMinM" validate:"gte=0"`
	GridCellM            float64 `yaml:"gridCellM" validate:"gte=0"`
	Workers              int     `yaml:"workers" validate:"gte=0"`
}

type CityConfig struct {
	Name               string    `yaml:"name" validate:"required"`
	NetworkPath        string    `yaml:"network" validate:"required"`
	BBox               []float64 `yaml:"bbox" validate:"omitempty,len=4"` // minLon,minLat,maxLon,maxLat
	MatchRadiusM       float64   `yaml:"matchRadiusM" validate:"gte=0"`
	MaxWalkSpeedMS     float64   `yaml:"maxWalkSpeedMS" validate:"gte=0"`
	MinWalkSpeedMS     float64   `yaml:"minWalkSpeedMS" validate:"gte=0"`
	MinSinuosity       float64   `yaml:"minSinuosity" validate:"gte=0"`
	MaxDirectDistanceM float64   `yaml:"maxDirectDistanceM" validate:"gte=0"`
}

// Bound returns the configured attribution box. ok is false when the
// config omits it and attribution falls back to the network extent.
func (c CityConfig) Bound() (orb.Bound, bool) {
	if len(c.BBox) != 4 {
		return orb.Bound{}, false
	}
	return orb.Bound{
		Min: orb.Point{c.BBox[0], c.BBox[1]},
		Max: orb.Point{c.BBox[2], c.BBox[3]},
	}, true
}

type AppConfig struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	Storage StorageConfig `yaml:"storage"`
	Engine  EngineConfig  `yaml:"engine"`
	Cities  []CityConfig  `yaml:"cities"`
}

// City chooses a configured city by name, case-insensitively.
func (c AppConfig) City(name string) (CityConfig, bool) {
	for _, city := range c.Cities {
		if strings.EqualFold(city.Name, name) {
			return city, true
		}
	}
	return CityConfig{}, false
}

var Config AppConfig

func LoadAppConfig(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{"config.yml", "./config/config.yml"}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}
	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return err
	}
	if err := v.Struct(cfg.Engine); err != nil {
		return err
	}
	// cities are optional at load time; process mode requires at least one
	for _, c := range cfg.Cities {
		if err := v.Struct(c); err != nil {
			return err
		}
	}
	Config = cfg
	if Config.Server.Port == 0 {
		Config.Server.Port = 16181
	}
	applyEngineDefaults(&Config.Engine)
	for i := range Config.Cities {
		applyCityDefaults(&Config.Cities[i])
	}
	return nil
}

func applyEngineDefaults(e *EngineConfig) {
	if e.MaxGapSeconds == 0 {
		e.MaxGapSeconds = 600
	}
	if e.MaxGapMeters == 0 {
		e.MaxGapMeters = 300
	}
	if e.MinTripPoints == 0 {
		e.MinTripPoints = 10
	}
	if e.TransitPointFraction == 0 {
		e.TransitPointFraction = 0.3
	}
	if e.MinMatchConfidence == 0 {
		e.MinMatchConfidence = 0.25
	}
	if e.GapBridgePoints == 0 {
		e.GapBridgePoints = 5
	}
	if e.MinWalkDurationS == 0 {
		e.MinWalkDurationS = 60
	}
	if e.MinWalkDistanceM == 0 {
		e.MinWalkDistanceM = 100
	}
	if e.StraightLineMinM == 0 {
		e.StraightLineMinM = 2000
	}
	if e.CrawlDirectMinM == 0 {
		e.CrawlDirectMinM = 500
	}
	if e.GridCellM == 0 {
		e.GridCellM = 250
	}
	if e.Workers == 0 {
		e.Workers = 4
	}
}

func applyCityDefaults(c *CityConfig) {
	if c.MatchRadiusM == 0 {
		c.MatchRadiusM = 10
	}
	if c.MaxWalkSpeedMS == 0 {
		c.MaxWalkSpeedMS = 2.5
	}
	if c.MinWalkSpeedMS == 0 {
		c.MinWalkSpeedMS = 0.2
	}
	if c.MinSinuosity == 0 {
		c.MinSinuosity = 1.05
	}
	if c.MaxDirectDistanceM == 0 {
		c.MaxDirectDistanceM = 8000
	}
}
