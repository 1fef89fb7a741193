// Package config handles configuration loading and management for branchspec.
//
// It provides functionality for:
//   - Loading configuration from .branchspec.yaml, branchspec.yaml or .branchspec.json
//   - Default configuration values
//   - BRANCHSPEC_* environment overrides (BRANCHSPEC_EXPECT_BASESHA for expect.baseSHA)
package config
