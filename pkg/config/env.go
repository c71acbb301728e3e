package config

import "strings"

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike returns true for staging and production.
// Use this when configuration must not fall back to development defaults.
func IsProductionLike(environment string) bool {
	switch strings.ToLower(environment) {
	case EnvStaging, EnvProduction:
		return true
	default:
		return false
	}
}
