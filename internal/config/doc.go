// Package config provides configuration structures and utilities for vtlookup.
// It defines the service credentials, request budget, input column names,
// type aliases and report preferences, and loads them from the .vtlookup
// YAML file and the environment.
package config
