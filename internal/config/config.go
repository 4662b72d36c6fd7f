// Package config loads the controller's tunable parameters from
// defaults, an optional YAML file, and environment variables (which
// override the file), and watches the config file with fsnotify to
// re-parse the subset of parameters that are safe to change at runtime
// (lockout duration, queue capacity, tick interval), handing each
// re-parsed set to a callback.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable the controller needs at startup. Fields
// under Tunable are the ones HotReloader re-parses when the file
// changes; the rest (ports, NATS URL) are read only by Load.
type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	WSAddr      string `yaml:"ws_addr"`
	NATSURL     string `yaml:"nats_url"`
	InfluxURL   string `yaml:"influx_url"`
	InfluxToken string `yaml:"influx_token"`
	InfluxOrg   string `yaml:"influx_org"`
	InfluxBucket string `yaml:"influx_bucket"`
	MetricsAddr string `yaml:"metrics_addr"`

	Tunable `yaml:",inline"`
}

// Tunable is the subset of Config safe to change without a restart.
type Tunable struct {
	LockoutMs     int64 `yaml:"lockout_ms"`
	QueueCapacity int   `yaml:"queue_capacity"`
	TickMs        int64 `yaml:"tick_ms"`
}

func defaults() Config {
	return Config{
		HTTPAddr:     ":8080",
		WSAddr:       ":8081",
		NATSURL:      "nats://localhost:4222",
		InfluxURL:    "http://localhost:8086",
		InfluxOrg:    "throttle",
		InfluxBucket: "telemetry",
		MetricsAddr:  ":9090",
		Tunable: Tunable{
			LockoutMs:     200,
			QueueCapacity: 16,
			TickMs:        20,
		},
	}
}

// Load builds a Config from defaults, then a YAML file at path if it
// exists, then environment variables, each layer overriding the last.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("THROTTLE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("THROTTLE_WS_ADDR"); v != "" {
		cfg.WSAddr = v
	}
	if v := os.Getenv("THROTTLE_NATS_URL"); v != "" {
		cfg.NATSURL = v
	}
	if v := os.Getenv("THROTTLE_INFLUX_URL"); v != "" {
		cfg.InfluxURL = v
	}
	if v := os.Getenv("THROTTLE_INFLUX_TOKEN"); v != "" {
		cfg.InfluxToken = v
	}
	if v := os.Getenv("THROTTLE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("THROTTLE_LOCKOUT_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.LockoutMs = n
		}
	}
	if v := os.Getenv("THROTTLE_QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueCapacity = n
		}
	}
	if v := os.Getenv("THROTTLE_TICK_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TickMs = n
		}
	}
}

// HotReloader watches a YAML file for changes and re-parses its
// Tunable section on every write, handing the result to onChange.
// Parse failures are reported through onError and leave the last-good
// Tunable in place.
type HotReloader struct {
	mu       sync.Mutex
	path     string
	watcher  *fsnotify.Watcher
	onChange func(Tunable)
	onError  func(error)
	done     chan struct{}
}

// NewHotReloader starts watching path. Call Close to stop.
func NewHotReloader(path string, onChange func(Tunable), onError func(error)) (*HotReloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching config file %s: %w", path, err)
	}

	hr := &HotReloader{
		path:     path,
		watcher:  watcher,
		onChange: onChange,
		onError:  onError,
		done:     make(chan struct{}),
	}
	go hr.loop()
	return hr, nil
}

func (hr *HotReloader) loop() {
	for {
		select {
		case event, ok := <-hr.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			hr.reload()
		case err, ok := <-hr.watcher.Errors:
			if !ok {
				return
			}
			hr.onError(err)
		case <-hr.done:
			return
		}
	}
}

func (hr *HotReloader) reload() {
	data, err := os.ReadFile(hr.path)
	if err != nil {
		hr.onError(fmt.Errorf("reloading config: %w", err))
		return
	}
	var t struct {
		Tunable `yaml:",inline"`
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		hr.onError(fmt.Errorf("reloading config: %w", err))
		return
	}
	hr.onChange(t.Tunable)
}

// Close stops the watcher.
func (hr *HotReloader) Close() error {
	close(hr.done)
	return hr.watcher.Close()
}
