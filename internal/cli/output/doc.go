// Package output formats CLI results as tables, JSON, or YAML.
//
// The table formatter derives columns from struct fields via
// reflection, honoring `table:"-"` to hide a field and `table:"wide"`
// to show it only with --wide.
package output
