// Package config provides configuration structures and utilities for snitch.
// It defines crawl settings, transport settings and report preferences,
// and loads the optional .snitch YAML file.
package config
