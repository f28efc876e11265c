package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound      = goerr.New("configuration file not found")
	ErrInvalidConfig       = goerr.New("invalid configuration")
	ErrDuplicatePlatformID = goerr.New("duplicate platform ID")
	ErrMissingPatterns     = goerr.New("platform rule requires at least one pattern")
	ErrInvalidPattern      = goerr.New("invalid URL pattern")
)
