package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// envConfigPath names a defaults file when --config is not given
const envConfigPath = "EPINGER_CONFIG"

// File holds defaults read from a YAML file. Command line flags always win
// over values from the file.
type File struct {
	Output      *string        `yaml:"output"`
	Count       *int           `yaml:"count"`
	Wait        *int           `yaml:"wait"`
	Threads     *int           `yaml:"threads"`
	Interval    *time.Duration `yaml:"interval"`
	Transport   *string        `yaml:"transport"`
	Privileged  *bool          `yaml:"privileged"`
	IPv4        *bool          `yaml:"ipv4"`
	IPv6        *bool          `yaml:"ipv6"`
	Gateway     *bool          `yaml:"gateway"`
	PTR         *bool          `yaml:"ptr"`
	History     *string        `yaml:"history"`
	MetricsFile *string        `yaml:"metrics_file"`
	Chart       *string        `yaml:"chart"`
	Log         *string        `yaml:"log"`
	LogLevel    *string        `yaml:"log_level"`
}

// LoadFile reads a YAML defaults file
func LoadFile(path string) (File, error) {
	var cfg File

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	return cfg, nil
}

// flagValues maps flag names to the string form of every value set in the file
func (f File) flagValues() map[string]string {
	values := map[string]string{}
	str := func(name string, v *string) {
		if v != nil {
			values[name] = *v
		}
	}
	num := func(name string, v *int) {
		if v != nil {
			values[name] = strconv.Itoa(*v)
		}
	}
	boolean := func(name string, v *bool) {
		if v != nil {
			values[name] = strconv.FormatBool(*v)
		}
	}

	str("output", f.Output)
	num("count", f.Count)
	num("wait", f.Wait)
	num("threads", f.Threads)
	if f.Interval != nil {
		values["interval"] = f.Interval.String()
	}
	str("transport", f.Transport)
	boolean("privileged", f.Privileged)
	boolean("ipv4", f.IPv4)
	boolean("ipv6", f.IPv6)
	boolean("gateway", f.Gateway)
	boolean("ptr", f.PTR)
	str("history", f.History)
	str("metrics-file", f.MetricsFile)
	str("chart", f.Chart)
	str("log", f.Log)
	str("log-level", f.LogLevel)
	return values
}
