// Package config loads notelock process configuration from NOTELOCK_*
// environment variables and an optional .env file.
package config
