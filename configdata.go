// Package lookout provides embedded assets for the Lookout bot.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML]. The main package copies this file to the data
// directory on first run so a fresh install starts from documented defaults.
package lookout

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
