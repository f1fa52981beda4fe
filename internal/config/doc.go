// Package config loads the masterserver configuration from a YAML file,
// environment variables and CLI flags with precedence: CLI flags > environment
// variables > YAML file > defaults. The result is an immutable Config value
// that is handed to the rest of the application at construction time.
//
// NewLoader is the only sanctioned entry point; a Loader obtained any other
// way refuses to load and reports an *AccessError.
package config
