package properties

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EngineEarthEngine = "earthengine"
	EngineLocal       = "local"
)

// DefaultRegion is the park polygon used when neither REGION_ASSET nor
// REGION_GEOJSON is reachable, as [lon, lat] vertices.
var DefaultRegion = [][2]float64{
	{-6.440, 37.222},
	{-6.440, 36.835},
	{-5.878, 36.835},
	{-5.878, 37.222},
}

type Config struct {
	RootPath string
	Engine   string

	EEProject         string
	EECredentialsFile string
	EEBaseURL         string
	MapCacheTTL       time.Duration

	StartDate string
	EndDate   string
	PointLon  float64
	PointLat  float64

	Country       string
	RegionAsset   string
	RegionGeoJSON string

	MaxCloudCoverage float64

	OutputHTML string
	Zoom       int

	LogLevel string
	LogFile  string

	DiscordErrorNotificationURL   string
	DiscordSuccessNotificationURL string
}

// LoadEnv reads ../.env then .env; variables already set win.
func LoadEnv() {
	for _, path := range []string{"../.env", ".env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// Load reads the configuration from the environment with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		RootPath:          getenvDefault("ROOT_PATH", "."),
		Engine:            strings.ToLower(getenvDefault("ENGINE", EngineEarthEngine)),
		EEProject:         os.Getenv("EE_PROJECT"),
		EECredentialsFile: os.Getenv("EE_CREDENTIALS_FILE"),
		EEBaseURL:         getenvDefault("EE_BASE_URL", "https://earthengine.googleapis.com/v1"),
		StartDate:         getenvDefault("START_DATE", "2017-03-28"),
		EndDate:           getenvDefault("END_DATE", "2021-12-31"),
		Country:           getenvDefault("COUNTRY", "Spain"),
		RegionAsset:       getenvDefault("REGION_ASSET", "users/mafmonjaraz/DNP_limits"),
		RegionGeoJSON:     os.Getenv("REGION_GEOJSON"),
		OutputHTML:        getenvDefault("OUTPUT_HTML", "DNP_indices.html"),
		LogLevel:          getenvDefault("LOG_LEVEL", "info"),

		DiscordErrorNotificationURL:   os.Getenv("DISCORD_ERROR_NOTIFICATION_URL"),
		DiscordSuccessNotificationURL: os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL"),
	}
	cfg.LogFile = getenvDefault("LOG_FILE", filepath.Join(cfg.RootPath, "data", "logs", "parkmap.log"))

	if err := cfg.validateEngine(); err != nil {
		return nil, err
	}

	var err error
	if cfg.PointLon, err = getenvFloat("POINT_LON", -6.434); err != nil {
		return nil, err
	}
	if cfg.PointLat, err = getenvFloat("POINT_LAT", 36.998); err != nil {
		return nil, err
	}
	if cfg.MaxCloudCoverage, err = getenvFloat("MAX_CLOUD_COVERAGE", 100); err != nil {
		return nil, err
	}
	if cfg.Zoom, err = getenvInt("ZOOM", 12); err != nil {
		return nil, err
	}

	ttl, err := time.ParseDuration(getenvDefault("MAP_CACHE_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAP_CACHE_TTL: %w", err)
	}
	cfg.MapCacheTTL = ttl

	return cfg, nil
}

func (c *Config) validateEngine() error {
	if c.Engine != EngineEarthEngine && c.Engine != EngineLocal {
		return fmt.Errorf("invalid ENGINE: %q, want %s or %s", c.Engine, EngineEarthEngine, EngineLocal)
	}
	return nil
}

// Validate checks the settings the selected engine needs. Run it again
// after overriding fields loaded by Load.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if c.Engine == EngineEarthEngine && c.EEProject == "" {
		return fmt.Errorf("EE_PROJECT is required for the %s engine", EngineEarthEngine)
	}
	if c.PointLon < -180 || c.PointLon > 180 || c.PointLat < -90 || c.PointLat > 90 {
		return fmt.Errorf("invalid point of interest: %g, %g", c.PointLon, c.PointLat)
	}
	if c.Zoom < 0 || c.Zoom > 24 {
		return fmt.Errorf("invalid ZOOM: %d", c.Zoom)
	}
	return nil
}

// DataPath joins elem under <RootPath>/data.
func (c *Config) DataPath(elem ...string) string {
	return filepath.Join(append([]string{c.RootPath, "data"}, elem...)...)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
