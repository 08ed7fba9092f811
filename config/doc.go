// Package config loads the routing daemon configuration.
//
// Precedence: defaults, then the YAML file, then environment variable
// overrides for node identity and logging.
package config
