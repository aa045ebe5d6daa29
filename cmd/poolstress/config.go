package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/pavanmanishd/blockpool/internal/stress"
)

const (
	envVarPrefix = "POOLSTRESS"
	appName      = "poolstress"
)

type Config struct {
	Workers   int     `envconfig:"WORKERS"    yaml:"workers"`
	Blocks    int     `envconfig:"BLOCKS"     yaml:"blocks"`
	BlockSize int     `envconfig:"BLOCK_SIZE" yaml:"blockSize"`
	Ops       int     `envconfig:"OPS"        yaml:"ops"`
	Rate      float64 `envconfig:"RATE"       yaml:"rate"`
	Mmap      bool    `envconfig:"MMAP"       yaml:"mmap"`
	Pin       bool    `envconfig:"PIN"        yaml:"pin"`
	Unchecked bool    `envconfig:"UNCHECKED"  yaml:"unchecked"`
	Seed      uint64  `envconfig:"SEED"       yaml:"seed"`
	Debug     bool    `envconfig:"DEBUG"      yaml:"debug"`
}

func DefaultConfig() Config {
	d := stress.DefaultConfig()
	return Config{
		Workers:   d.Workers,
		Blocks:    d.Blocks,
		BlockSize: d.BlockSize,
		Ops:       d.Ops,
	}
}

// LoadConfig layers the config file named by POOLSTRESS_CONFIG_FILE (if
// any) and then POOLSTRESS_* environment variables over the defaults.
func LoadConfig() (*Config, error) {
	c := DefaultConfig()

	if configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE"); configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func (c *Config) Stress() stress.Config {
	return stress.Config{
		Workers:   c.Workers,
		Blocks:    c.Blocks,
		BlockSize: c.BlockSize,
		Ops:       c.Ops,
		Rate:      c.Rate,
		Mmap:      c.Mmap,
		Pin:       c.Pin,
		Unchecked: c.Unchecked,
		Seed:      c.Seed,
	}
}
