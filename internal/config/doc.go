// Package config loads the server settings from defaults, an optional YAML
// file and TAKEATASK_* environment variables, and validates them.
package config
