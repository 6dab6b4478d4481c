// Package config provides typed settings for katalan.
//
// Settings are layered, lowest priority first:
//
//  1. Built-in defaults (see Default)
//  2. TOML configuration file
//  3. KATALAN_* environment variables
//
// The merged tree is decoded strictly: unknown sections or settings are
// rejected so that typos do not silently fall back to defaults.
//
// Example katalan.toml:
//
//	[logging]
//	level = "debug"
//	format = "json"
//
//	[clock]
//	time_zone = "Europe/Paris"
//
//	[radar]
//	equipment_id = "A7-north"
//	maximum_speed = 130
//
//	[bus]
//	max_depth = 16
//
//	[infraction]
//	strict_correlation = true
package config
