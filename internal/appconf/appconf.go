// Package appconf loads the service configuration from defaults, an optional
// config file, MBTAMAP_* environment variables and command-line flags, in
// increasing order of precedence.
package appconf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps the -env flag value to an Environment.
// Unknown values fall back to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production":
		return Production
	default:
		return Development
	}
}

const EnvPrefix = "MBTAMAP"

type FeedConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	Format          string        `mapstructure:"format" validate:"oneof=json gtfsrt"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Retries         int           `mapstructure:"retries" validate:"gte=0,lte=10"`
	AuthHeaderKey   string        `mapstructure:"auth_header_key"`
	AuthHeaderValue string        `mapstructure:"auth_header_value" validate:"required_with=AuthHeaderKey"`
}

type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval" validate:"gt=0"`
	SessionIdle time.Duration `mapstructure:"session_idle" validate:"gt=0"`
	MaxSessions int           `mapstructure:"max_sessions" validate:"gt=0"`
}

type DataConfig struct {
	RoutesFile      string `mapstructure:"routes_file" validate:"required"`
	RouteIDProperty string `mapstructure:"route_id_property" validate:"required"`
	CatalogFile     string `mapstructure:"catalog_file"`
	HeadsignsFile   string `mapstructure:"headsigns_file"`
}

type MapConfig struct {
	TileURL   string  `mapstructure:"tile_url" validate:"required"`
	CenterLat float64 `mapstructure:"center_lat" validate:"gte=-90,lte=90"`
	CenterLon float64 `mapstructure:"center_lon" validate:"gte=-180,lte=180"`
	Zoom      int     `mapstructure:"zoom" validate:"gte=1,lte=20"`
}

// Config holds all the configuration settings for the service.
type Config struct {
	Port      int         `mapstructure:"port" validate:"gt=0,lte=65535"`
	EnvName   string      `mapstructure:"env" validate:"oneof=development test production"`
	Env       Environment `mapstructure:"-"`
	LogLevel  string      `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	TimeZone  string      `mapstructure:"time_zone" validate:"required"`
	RateLimit int         `mapstructure:"rate_limit" validate:"gte=0"`
	DebugKeys []string    `mapstructure:"debug_keys"`
	Feed      FeedConfig  `mapstructure:"feed"`
	Poll      PollConfig  `mapstructure:"poll"`
	Data      DataConfig  `mapstructure:"data"`
	Map       MapConfig   `mapstructure:"map"`
}

// Location resolves the configured time zone used for status timestamps.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

var defaults = map[string]any{
	"port":                   4000,
	"env":                    "development",
	"log_level":              "info",
	"time_zone":              "America/New_York",
	"rate_limit":             100,
	"debug_keys":             []string{},
	"feed.url":               "https://mbta-flask-513a6449725e.herokuapp.com/proxy",
	"feed.format":            "json",
	"feed.timeout":           10 * time.Second,
	"feed.retries":           2,
	"feed.auth_header_key":   "",
	"feed.auth_header_value": "",
	"poll.interval":          5 * time.Second,
	"poll.session_idle":      10 * time.Minute,
	"poll.max_sessions":      256,
	"data.routes_file":       "data/outputs/routes.geojson",
	"data.route_id_property": "route_id",
	"data.catalog_file":      "",
	"data.headsigns_file":    "",
	"map.tile_url":           "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
	"map.center_lat":         42.3601,
	"map.center_lon":         -71.0889,
	"map.zoom":               12,
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"port":           "port",
	"env":            "env",
	"log-level":      "log_level",
	"feed-url":       "feed.url",
	"feed-format":    "feed.format",
	"poll-interval":  "poll.interval",
	"routes-file":    "data.routes_file",
	"catalog-file":   "data.catalog_file",
	"headsigns-file": "data.headsigns_file",
	"rate-limit":     "rate_limit",
	"debug-keys":     "debug_keys",
}

// RegisterFlags defines the service flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to an optional YAML/TOML/JSON config file")
	fs.Int("port", defaults["port"].(int), "API server port")
	fs.String("env", defaults["env"].(string), "Environment (development|test|production)")
	fs.String("log-level", defaults["log_level"].(string), "Log level (debug|info|warn|error)")
	fs.String("feed-url", defaults["feed.url"].(string), "Vehicle position feed URL")
	fs.String("feed-format", defaults["feed.format"].(string), "Feed payload format (json|gtfsrt)")
	fs.Duration("poll-interval", defaults["poll.interval"].(time.Duration), "Feed polling interval")
	fs.String("routes-file", defaults["data.routes_file"].(string), "Simplified route geometry GeoJSON")
	fs.String("catalog-file", "", "Optional YAML list of selectable routes")
	fs.String("headsigns-file", "", "Optional trip headsign CSV")
	fs.Int("rate-limit", defaults["rate_limit"].(int), "Requests per second allowed per client (0 disables limiting)")
	fs.StringSlice("debug-keys", nil, "Comma separated keys that unlock the debug pages")
}

// Load parses args against a fresh flag set and resolves the configuration.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("mbtamap", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return FromFlags(fs)
}

// FromFlags resolves the configuration from an already parsed flag set.
func FromFlags(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	for name, key := range flagKeys {
		if flag := fs.Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flag := fs.Lookup("config"); flag != nil && flag.Value.String() != "" {
		v.SetConfigFile(flag.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Env = EnvFlagToEnvironment(cfg.EnvName)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and the configured time zone.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}
