// Package config provides the configuration for a docsearch crawl.
// It defines defaults, validation, XDG directory helpers and the YAML
// configuration file format.
package config
