// Package confloader loads server configuration.
//
// It builds on koanf and merges sources in priority order, later
// sources overriding earlier ones:
//
//  1. Default values
//  2. Configuration file (YAML)
//  3. Environment variables (CHATVAULT_ prefix)
//
// Environment variables map sections with a double underscore, since
// configuration keys themselves contain single underscores:
// CHATVAULT_BACKUP__MAX_PER_CHAT sets backup.max_per_chat.
//
// Watcher wraps fsnotify to re-run a callback when the configuration
// file changes, which drives hot reload of the retention and debounce
// settings.
package confloader
