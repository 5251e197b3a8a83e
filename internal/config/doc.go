// Package config provides the configuration of the rewrite tool.
//
// Settings are resolved in layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← REWRITE_ENGINE_TAB_WIDTH=8
//	├─────────────────────────────┤
//	│  2. Config File             │  ← rewrite.toml or rewrite.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// A TOML file looks like:
//
//	[log]
//	level = "debug"
//	format = "json"
//
//	[engine]
//	max_history = 500
//	line_ending = "lf"
//	tab_width = 4
//
//	[script]
//	timeout = "2s"
//	max_edits = 10000
//
// Unknown keys and out-of-range values are reported as *ValidationError,
// several at once when more than one setting is wrong.
//
// # Sub-packages
//
//   - loader: file loading (TOML, YAML) and environment variables
package config
