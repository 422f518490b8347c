// Package shared holds helpers used across packages that belong to no single
// layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on log output
//   - table builders mirroring the pipeline's statistics tables
//   - writers for legacy dataset files and a complete fixture tree
//
// Example:
//
//	root := testutil.NewDatasetTree(t)
//	loc := dataset.NewLocator(files.NewManager(root))
//
// testutil imports only config and stats so that any package's tests can
// use it without an import cycle.
package shared
