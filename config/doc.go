// Package config builds the storefront runtime configuration from environment
// variables and an optional .env file.
package config
