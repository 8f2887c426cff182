// Package config handles loading and validation of shelf configuration.
//
// Configuration is read from ~/.config/shelf/config.toml with environment
// variable overrides. A .env file in the working directory is loaded into
// the environment by the CLI before Load runs.
//
// # Configuration Sources (highest priority first)
//
//   - SHELF_LIBRARY_DIR, SHELF_CACHE_FILE, SHELF_STEAM_LANGUAGE env vars
//   - SHELF_THEME, SHELF_THEME_MODE env vars
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - library_dir: Default game library folder (must be absolute or ~/...)
//   - cache_file: Name cache location (default: ~/.shelf/names.json)
//   - [steam]: base_url, language (default "schinese"), timeout
//   - [apps] list_command: argv of the package listing command
//   - [theme]: UI color preset and overrides
//
// # Path Validation
//
// Paths must be absolute or start with ~ (no relative paths like "."
// or "..") to avoid confusion about the working directory.
package config
