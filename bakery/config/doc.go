// Package config holds the immutable simulation parameters.
//
// Load reads the line based key=value format (one "key=value" per line, "#" starts a comment) or a flat
// YAML mapping with the same keys. Both are applied on top of Default().
package config
