// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config // import "lettre.app/internal/config"

// Opts holds parsed configuration options.
var Opts *Options

// Load loads configuration values from a local .env file (if filename isn't
// empty) and from environment variables after that.
func Load(filename string) (err error) {
	cfg := NewParser()
	if filename != "" {
		Opts, err = cfg.ParseEnvFile(filename)
		return
	}
	Opts, err = cfg.ParseEnvironmentVariables()
	return
}

// LoadYAML loads configuration values from a YAML file first and then, on top
// of it, like Load does.
func LoadYAML(yamlName, envName string) (err error) {
	Opts, err = NewParser().ParseYAMLFile(yamlName, envName)
	return
}
