// Package files provides file system access rooted at a base directory.
//
// Manager opens, lists and writes files addressed by slash separated keys,
// so the same keys work for the local dataset tree and for object storage.
// It is the filesystem backend of the dataset locator and the sink of the
// export command.
//
// Discovery lists directories and globs files. The startup check uses it
// to count collections and report the most recently updated one.
//
// Example usage:
//
//	manager := files.NewManager("/srv/etf/docs/dataset")
//	rc, err := manager.Open(ctx, "ETF_sector/XLB/storage/pivot_stats.json")
//
//	latest, ok := files.GetLatestFile(found)
package files
