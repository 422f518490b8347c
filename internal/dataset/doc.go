// Package dataset locates and loads the serialized statistics collections
// written by the pipeline.
//
// Files live at <category>/<ticker>/storage/<filename> under the dataset
// root, read through a Source: the local filesystem (files.Manager) or an
// S3 bucket (S3Source). Resolved collections are memoized in process and,
// when configured, shared through Redis.
//
// Two encodings are accepted. Legacy files are JSON arrays mirroring the
// pipeline's pickled tuples:
//
//	["price", {"monthly": {...}, "monthly_range_5_yr": {...}}]
//	[["holiday", {...}], ["tww", {...}], ["tww_weekly", {...}]]
//
// Without a variant the collection is element [1]; with a variant it is
// element [variant][1]. Versioned files name the same positions:
//
//	{"schema_version": 1, "label": "price", "tables": {...}}
//	{"schema_version": 1, "variants": [{"label": "holiday", "tables": {...}}]}
//
// Each table is a pandas "split" document; see stats.Table.
package dataset
