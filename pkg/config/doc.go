// Package config provides configuration management for Conduit.
//
// This package handles loading, validating, and watching configuration from
// YAML files with environment variable overrides. Routers are built from an
// already validated *Config and never read files themselves.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("conduit.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("conduit.yaml")
//
// A minimal file:
//
//	router:
//	  strategy: cost_priority_round_robin
//	  default_model: gpt-4o-mini
//	resilience:
//	  retry:
//	    enabled: true
//	    attempts: 3
//	  circuit_breaker:
//	    enabled: true
//	    threshold: 5
//	    reset_timeout: 30s
//	providers:
//	  - name: openai
//	    type: openai
//	    models:
//	      - name: gpt-4o-mini
//	        cost_per_1k_input: 0.00015
//	        cost_per_1k_output: 0.0006
//	    rate_limit:
//	      max_concurrent: 8
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CONDUIT_SECTION_FIELD.
// For example:
//
//   - CONDUIT_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - CONDUIT_ROUTER_STRATEGY overrides router.strategy
//   - CONDUIT_LOG_LEVEL overrides telemetry.logging.level
//   - CONDUIT_PROVIDER_OPENAI_API_KEY sets the api_key of provider "openai"
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Values from YAML file
//  2. Default values for fields left unset (defined in defaults.go)
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Reloading
//
// Watcher observes the file with fsnotify and, after a debounce period,
// hands each successfully reloaded Config to a callback. Invalid edits are
// logged and ignored.
package config
