// Package config provides configuration management for the intake
// decision engine.
//
// This package handles loading, validating, and managing configuration from
// YAML files with .env and environment variable overrides. The program
// catalog itself is not part of this configuration; only its location and
// reload behaviour are (see package catalog).
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// LoadConfigWithEnvOverrides first loads a .env file from the working
// directory when one exists, then applies variables named
// INTAKE_SECTION_FIELD. For example:
//
//   - INTAKE_CATALOG_PATH overrides catalog.path
//   - INTAKE_AUDIT_BACKEND overrides audit.backend
//   - INTAKE_AUDIT_POSTGRES_PASSWORD overrides audit.postgres.password
//   - INTAKE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// Library packages take explicit configuration values; only commands use
// the singleton.
package config
