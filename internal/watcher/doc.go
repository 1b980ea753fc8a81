// Package watcher imports directory entries from TOML seed documents placed
// in the configured seed directory, both at startup and as files appear.
package watcher
