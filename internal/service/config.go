// Copyright 2025 EURECOM
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Contributors:
//   Giulio CAROTA
//   Thomas DU
//   Adlen KSENTINI

package service

import (
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"gitlab.eurecom.fr/open-exposure/coresim/mme-core/internal/components/mme"
)

const (
	defaultOamPort     = 8081
	defaultMetricsPort = 9090
	defaultMailboxSize = 1024
	defaultMmeName     = "mmec01.mmegi8001.mme.epc.mnc001.mcc001.3gppnetwork.org"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type AppConfig struct {
	OamPort     uint16    `yaml:"oamPort"`
	MetricsPort uint16    `yaml:"metricsPort"`
	LogLevel    string    `yaml:"logLevel"`
	Mme         MmeConfig `yaml:"mme"`
	Sgs         SgsTimers `yaml:"sgs"`
}

type MmeConfig struct {
	MmeName        string `yaml:"mmeName"`
	MailboxSize    int    `yaml:"mailboxSize"`
	MaxSgsContexts int    `yaml:"maxSgsContexts"`
}

// SgsTimers holds the SGs timer values in seconds.
type SgsTimers struct {
	Ts6_1 uint32 `yaml:"ts6_1"`
	Ts8   uint32 `yaml:"ts8"`
	Ts9   uint32 `yaml:"ts9"`
	Ts10  uint32 `yaml:"ts10"`
	Ts13  uint32 `yaml:"ts13"`
}

func InitConfig(configPath string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	return ParseConfig(yamlFile)
}

// ParseConfig unmarshals a YAML document and fills in the defaults.
func ParseConfig(data []byte) (*AppConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *AppConfig) applyDefaults() {
	if cfg.OamPort == 0 {
		cfg.OamPort = defaultOamPort
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = defaultMetricsPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = zerolog.InfoLevel.String()
	}
	if cfg.Mme.MmeName == "" {
		cfg.Mme.MmeName = defaultMmeName
	}
	if cfg.Mme.MailboxSize == 0 {
		cfg.Mme.MailboxSize = defaultMailboxSize
	}

	def := mme.DefaultSgsConfig()
	for _, t := range []struct {
		v   *uint32
		def time.Duration
	}{
		{&cfg.Sgs.Ts6_1, def.Ts6_1},
		{&cfg.Sgs.Ts8, def.Ts8},
		{&cfg.Sgs.Ts9, def.Ts9},
		{&cfg.Sgs.Ts10, def.Ts10},
		{&cfg.Sgs.Ts13, def.Ts13},
	} {
		if *t.v == 0 {
			*t.v = uint32(t.def / time.Second)
		}
	}
}

func (cfg *AppConfig) validate() error {
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "logLevel %q", cfg.LogLevel)
	}
	if cfg.Mme.MailboxSize < 0 {
		return errors.Wrapf(ErrInvalidConfig, "mme.mailboxSize %d", cfg.Mme.MailboxSize)
	}
	if cfg.Mme.MaxSgsContexts < 0 {
		return errors.Wrapf(ErrInvalidConfig, "mme.maxSgsContexts %d", cfg.Mme.MaxSgsContexts)
	}
	if cfg.OamPort == cfg.MetricsPort {
		return errors.Wrapf(ErrInvalidConfig, "oamPort and metricsPort are both %d", cfg.OamPort)
	}
	return nil
}

func (cfg *AppConfig) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// MmeAppConfig converts the file representation into the MME_APP configuration.
func (cfg *AppConfig) MmeAppConfig() mme.Config {
	return mme.Config{
		MmeName:        cfg.Mme.MmeName,
		MailboxSize:    cfg.Mme.MailboxSize,
		MaxSgsContexts: cfg.Mme.MaxSgsContexts,
		Sgs: mme.SgsConfig{
			Ts6_1: time.Duration(cfg.Sgs.Ts6_1) * time.Second,
			Ts8:   time.Duration(cfg.Sgs.Ts8) * time.Second,
			Ts9:   time.Duration(cfg.Sgs.Ts9) * time.Second,
			Ts10:  time.Duration(cfg.Sgs.Ts10) * time.Second,
			Ts13:  time.Duration(cfg.Sgs.Ts13) * time.Second,
		},
	}
}

func (cfg *AppConfig) Dumps() string {
	d, err := yaml.Marshal(cfg)
	if err != nil {
		return err.Error()
	}
	return string(d)
}
