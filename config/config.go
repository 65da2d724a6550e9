// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

var (
	ErrMissingUserAgent = errors.New("sec.user_agent must be set; SEC rejects anonymous requests")
	ErrNoSeries         = errors.New("fred.series contains an entry without a name or id")
)

type Config struct {
	Database     Database     `mapstructure:"database" toml:"database"`
	SEC          SEC          `mapstructure:"sec" toml:"sec"`
	Fred         Fred         `mapstructure:"fred" toml:"fred"`
	HealthChecks HealthChecks `mapstructure:"healthchecks" toml:"healthchecks"`
	Metrics      Metrics      `mapstructure:"metrics" toml:"metrics"`
	Backblaze    Backblaze    `mapstructure:"backblaze" toml:"backblaze"`
}

type Database struct {
	// URL is a SQLite file path (optionally prefixed with sqlite://) or a
	// postgres:// connection string
	URL string `mapstructure:"url" toml:"url"`
}

type SEC struct {
	UserAgent string        `mapstructure:"user_agent" toml:"user_agent"`
	Delay     time.Duration `mapstructure:"delay" toml:"delay"`
	Timeout   time.Duration `mapstructure:"timeout" toml:"timeout"`
	BaseURL   string        `mapstructure:"base_url" toml:"base_url"`
}

type Fred struct {
	APIKey  string        `mapstructure:"api_key" toml:"api_key"`
	BaseURL string        `mapstructure:"base_url" toml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" toml:"timeout"`
	Series  []Series      `mapstructure:"series" toml:"series"`
}

// Series names a macro series and the FRED series id it is fetched from
type Series struct {
	Name string `mapstructure:"name" toml:"name"`
	ID   string `mapstructure:"id" toml:"id"`
}

type HealthChecks struct {
	PingURL string `mapstructure:"ping_url" toml:"ping_url"`
}

type Metrics struct {
	PushGatewayURL string `mapstructure:"pushgateway_url" toml:"pushgateway_url"`
}

// Backblaze holds the B2 bucket that exports are uploaded to
type Backblaze struct {
	ApplicationID  string `mapstructure:"application_id" toml:"application_id"`
	ApplicationKey string `mapstructure:"application_key" toml:"application_key"`
	Bucket         string `mapstructure:"bucket" toml:"bucket"`
}

// DefaultSeries are the macro series synchronized when none are configured
func DefaultSeries() []Series {
	return []Series{
		{Name: "DGS10", ID: "DGS10"},
		{Name: "BAMLH0A0HYM2", ID: "BAMLH0A0HYM2"},
	}
}

// SetDefaults registers the default value of every key with v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "pvsec.db")
	v.SetDefault("sec.user_agent", "")
	v.SetDefault("sec.delay", 120*time.Millisecond)
	v.SetDefault("sec.timeout", 30*time.Second)
	v.SetDefault("sec.base_url", "https://data.sec.gov")
	v.SetDefault("fred.api_key", "")
	v.SetDefault("fred.base_url", "https://api.stlouisfed.org")
	v.SetDefault("fred.timeout", 30*time.Second)
	v.SetDefault("healthchecks.ping_url", "")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("backblaze.application_id", "")
	v.SetDefault("backblaze.application_key", "")
	v.SetDefault("backblaze.bucket", "")
}

// DatabaseURL returns the configured database url, falling back to the
// default. Commands that only touch storage use it instead of Load so they
// work without SEC settings.
func DatabaseURL(v *viper.Viper) string {
	SetDefaults(v)
	return v.GetString("database.url")
}

// Load builds a validated Config from the keys known to v
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("could not decode configuration: %w", err)
	}

	if len(cfg.Fred.Series) == 0 {
		cfg.Fred.Series = DefaultSeries()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a run
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.SEC.UserAgent) == "" {
		return ErrMissingUserAgent
	}

	if cfg.SEC.Delay < 0 {
		return fmt.Errorf("sec.delay must not be negative: %s", cfg.SEC.Delay)
	}

	for _, series := range cfg.Fred.Series {
		if series.Name == "" || series.ID == "" {
			return ErrNoSeries
		}
	}

	return nil
}

// Write saves cfg as TOML to fn
func Write(cfg *Config, fn string) error {
	configData, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(fn, configData, 0600)
}
