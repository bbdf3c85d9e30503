// Package config handles configuration loading, parsing, and validation
// from a .env file, an optional config.yaml and TASKTRACK_-prefixed
// environment variables. The resulting Config is built once at startup and
// passed explicitly to every component that needs it.
package config
