// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"

	"github.com/saferwall/yaradec"
	"gopkg.in/yaml.v3"
)

// config carries the operator-tunable output options. All fields are
// optional; absent values fall back to defaults.
type config struct {
	Log struct {
		// Level of the diagnostic logger: debug, info, warn or error.
		Level string `yaml:"level"`
	} `yaml:"log"`

	Output struct {
		// Tags toggles emitting rule tags after the identifier.
		Tags *bool `yaml:"tags"`

		// Asm toggles the disassembly section.
		Asm *bool `yaml:"asm"`
	} `yaml:"output"`
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func defaultConfig() *config {
	cfg := &config{}
	cfg.applyDefaults()
	return cfg
}

// parseConfig unmarshals, defaults and validates an options document.
func parseConfig(data []byte) (*config, error) {
	cfg := &config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing options: %v", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfig reads and parses an options file.
func loadConfig(path string) (*config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options file: %v", err)
	}
	return parseConfig(data)
}

func (c *config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	enabled := true
	if c.Output.Tags == nil {
		c.Output.Tags = &enabled
	}
	if c.Output.Asm == nil {
		c.Output.Asm = &enabled
	}
}

func (c *config) validate() error {
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

func (c *config) renderOptions() yaradec.RenderOptions {
	return yaradec.RenderOptions{
		Tags: *c.Output.Tags,
		Asm:  *c.Output.Asm,
	}
}
