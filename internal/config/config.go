// Package config loads process configuration and sensor definitions with viper
// and watches the config file for sensor changes.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"sensor_fleet/internal/models"
)

// ErrInvalidSensorConfig is wrapped by every sensor validation failure.
var ErrInvalidSensorConfig = errors.New("invalid sensor config")

const envPrefix = "SENSORS"

// Config is the full process configuration.
type Config struct {
	Port             string
	Log              LogConfig
	Audit            AuditConfig
	DB               DBConfig
	Simulation       SimulationConfig
	TemperatureRange models.TemperatureRange
	Dashboard        DashboardConfig
	Sensors          []models.SensorConfig
}

type LogConfig struct {
	Level string
	File  string // used instead of stdout when the dashboard is enabled
}

type AuditConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type DBConfig struct {
	Path      string
	Retention time.Duration // 0 keeps readings forever
}

type SimulationConfig struct {
	Tick           time.Duration
	HistorySize    int
	RetentionCheck int    // ticks between prune passes
	Seed           uint64 // 0 picks a random seed
}

type DashboardConfig struct {
	Enabled bool
	Refresh time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("audit.file", "logs/audit.log")
	v.SetDefault("audit.max_size_mb", 10)
	v.SetDefault("audit.max_backups", 5)
	v.SetDefault("audit.max_age_days", 30)
	v.SetDefault("audit.compress", false)
	v.SetDefault("db.path", "sensors.db")
	v.SetDefault("db.retention", "0s")
	v.SetDefault("simulation.tick", "2s")
	v.SetDefault("simulation.history_size", 10)
	v.SetDefault("simulation.retention_check", 300)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("temperature_range.min", 22.0)
	v.SetDefault("temperature_range.max", 24.0)
	v.SetDefault("temperature_range.use_fixed_range_as_primary", true)
	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.refresh", "1s")
}

// newViper prepares a viper instance for path with defaults and env overrides.
func newViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path, applying defaults and SENSORS_* env
// overrides. A .env file in the working directory is loaded first when present.
// Every sensor must pass ValidateSensors.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	if cfg.TemperatureRange.Min > cfg.TemperatureRange.Max {
		return nil, fmt.Errorf("temperature_range: min %.2f > max %.2f",
			cfg.TemperatureRange.Min, cfg.TemperatureRange.Max)
	}
	if err := ValidateSensors(cfg.Sensors); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port: v.GetString("port"),
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Audit: AuditConfig{
			File:       v.GetString("audit.file"),
			MaxSizeMB:  v.GetInt("audit.max_size_mb"),
			MaxBackups: v.GetInt("audit.max_backups"),
			MaxAgeDays: v.GetInt("audit.max_age_days"),
			Compress:   v.GetBool("audit.compress"),
		},
		DB: DBConfig{
			Path:      v.GetString("db.path"),
			Retention: v.GetDuration("db.retention"),
		},
		Simulation: SimulationConfig{
			Tick:           v.GetDuration("simulation.tick"),
			HistorySize:    v.GetInt("simulation.history_size"),
			RetentionCheck: v.GetInt("simulation.retention_check"),
			Seed:           v.GetUint64("simulation.seed"),
		},
		TemperatureRange: models.TemperatureRange{
			Min:                    v.GetFloat64("temperature_range.min"),
			Max:                    v.GetFloat64("temperature_range.max"),
			UseFixedRangeAsPrimary: v.GetBool("temperature_range.use_fixed_range_as_primary"),
		},
		Dashboard: DashboardConfig{
			Enabled: v.GetBool("dashboard.enabled"),
			Refresh: v.GetDuration("dashboard.refresh"),
		},
	}

	sensors, err := readSensors(v)
	if err != nil {
		return nil, err
	}
	cfg.Sensors = sensors
	return cfg, nil
}

func readSensors(v *viper.Viper) ([]models.SensorConfig, error) {
	var sensors []models.SensorConfig
	if err := v.UnmarshalKey("sensors", &sensors); err != nil {
		return nil, fmt.Errorf("decode sensors: %w", err)
	}
	return sensors, nil
}
