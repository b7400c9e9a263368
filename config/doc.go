// Package config loads caching-layer configuration from CACHEGUARD_*
// environment variables.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Named-constant defaults for every variable
//   - Conversion helpers into store and telemetry configs
//
// Values may reference other environment variables with `${VAR}`; a
// reference to a variable that is not set is an error rather than a
// silent empty string.
package config
