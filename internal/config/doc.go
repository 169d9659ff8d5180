// Package config provides centralized configuration management for finpanel.
// It loads configuration from layered sources, validates it, and resolves
// every file location through the Paths type.
//
// # Configuration Sources
//
// Later sources override earlier ones:
//
//	1. Default()
//	2. YAML file: $FINPANEL_CONFIG_FILE, config.yaml or configs/config.yaml
//	3. Environment variables (FINPANEL_*)
//
// # Environment Variables
//
// Nested sections map to underscore-joined names:
//
//	FINPANEL_SERVER_PORT=8080
//	FINPANEL_LOGGING_LEVEL=debug
//	FINPANEL_PATHS_RAW_DIR=/srv/finpanel/raw
//	FINPANEL_PIPELINE_YEARS=2023,2024
//	FINPANEL_PIPELINE_TICKERS=Tech/Google:GOOGL,Tech/Meta:META
//	FINPANEL_CACHE_TTL=10m
//
// The CLIs also read a .env file before Load is called.
//
// # Path Management
//
// Relative paths resolve against paths.base_dir, or the executable
// directory when it is empty:
//
//	paths, err := cfg.ResolvePaths()
//	reportPath := paths.GetReportPath("panel.csv")
package config
