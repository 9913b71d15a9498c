// Package config loads transport settings from a file and the environment.
//
// Sources are applied in order, later ones winning:
//
//  1. Defaults (Default).
//  2. A YAML (.yaml, .yml) or TOML (.toml) file.
//  3. REMUS_* variables from dotenv files, when requested.
//  4. REMUS_* variables from the process environment.
//
// Keys are never read from configuration. Build takes the key as an argument
// and returns the pipeline and transport configuration for the result.
package config
