// Package config provides configuration structures and utilities for validity.
// It defines the evaluation options (fetch policy, weights, model endpoints,
// credentials) and loads them from the YAML configuration file, .env files
// and the OS keyring.
package config
