package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"sensor_fleet/internal/logger"
	"sensor_fleet/internal/models"
)

// Watcher re-reads the sensor list whenever the config file changes and
// publishes validated lists on a channel. Only the latest pending list is kept.
type Watcher struct {
	v       *viper.Viper
	log     *logger.Logger
	changes chan []models.SensorConfig
}

// NewWatcher reads path once and starts watching it.
func NewWatcher(path string, log *logger.Logger) (*Watcher, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	w := &Watcher{
		v:       v,
		log:     log,
		changes: make(chan []models.SensorConfig, 1),
	}
	v.OnConfigChange(w.onChange)
	v.WatchConfig()
	return w, nil
}

// Changes delivers every valid sensor list seen after a file change.
func (w *Watcher) Changes() <-chan []models.SensorConfig {
	return w.changes
}

func (w *Watcher) onChange(e fsnotify.Event) {
	sensors, err := readSensors(w.v)
	if err == nil {
		err = ValidateSensors(sensors)
	}
	if err != nil {
		w.log.Errorw("config_reload_rejected", "file", e.Name, "err", err)
		return
	}
	w.log.Infow("config_reloaded", "file", e.Name, "sensors", len(sensors))
	w.publish(sensors)
}

// publish replaces any unconsumed list with the newest one.
func (w *Watcher) publish(sensors []models.SensorConfig) {
	for {
		select {
		case w.changes <- sensors:
			return
		default:
		}
		select {
		case <-w.changes:
		default:
		}
	}
}
