// Package table formats statistics tables for display.
//
// Formatting is pure: the source table is never modified and the row count
// is preserved. All styling comes from an explicit Style.
package table
