// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as
// the file format.
//
// Configuration is loaded from ~/.config/pynest/config.cue (or XDG
// equivalent on Linux, ~/Library/Application Support/pynest/config.cue on
// macOS, %APPDATA%\pynest\config.cue on Windows). User files are validated
// against an embedded CUE schema (config_schema.cue) before merging, so
// invalid values fail with a field path instead of silently unmarshalling
// to zero values.
package config
