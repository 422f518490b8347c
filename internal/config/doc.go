// Package config provides centralized configuration management for the ETF
// seasonal dashboard. It loads configuration from several sources, validates
// it, and resolves the directory layout every other package reads from.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML configuration file (config.yaml, configs/config.yaml or ETF_CONFIG_FILE)
//  3. Default values from struct tags (lowest priority)
//
// A .env file in the working directory is loaded first, when present, so its
// entries behave exactly like environment variables.
//
// # Environment Variables
//
// All environment variables follow the pattern ETF_<SECTION>_<FIELD>:
//
//	ETF_SERVER_PORT=8080
//	ETF_PATHS_ROOT_DIR=/srv/etf
//	ETF_STORAGE_BACKEND=s3
//	ETF_STORAGE_BUCKET=etf-dataset
//	ETF_CACHE_REDIS_ENABLED=true
//	ETF_LOGGING_LEVEL=debug
//
// # Directory Layout
//
// GetPaths resolves every directory against Paths.RootDir:
//
//	<root>/
//	  docs/dataset/
//	    ETF_sector/<TICKER>/storage/pivot_stats.json
//	    ETF_equity/PPA/<TICKER>/storage/pivot_vol_stats.json
//	    economic_data/FRED/fred_data.json
//	  exports/
//	  logs/runtime/log_processing.log
//
// The dataset tree belongs to the statistics pipeline and is treated as
// read-only. Only the exports and logs directories are created.
package config
