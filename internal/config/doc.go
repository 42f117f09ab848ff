// Package config builds the immutable per-run configuration from its
// four sources, highest precedence first: command-line flags,
// MDPIPE_* environment variables, a TOML config file (.mdpipe.toml,
// given explicitly or found by searching upward from the working
// directory), and built-in defaults.
//
// For drop-in use in environments already set up for mdsf, the
// MDSF_CONFIG and MDSF_TIMEOUT environment variables are honored at the
// lowest precedence level, and an unset tool-config path falls back to
// an upward search for mdsf.json.
//
// The resulting Config is constructed once, validated, and passed by
// value into the engine, processor, and hook pipeline — never consulted
// as ambient global state.
package config
