// Package config handles configuration loading for finch-store.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation, sensible defaults, and a file watcher for
// live reloads.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${FINCH_DB_PATH}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Local conversation database:
//
//	database:
//	  path: "/var/lib/finch/conversations.db"
//
// Telephony provider store:
//
//	telephony:
//	  path: "/var/lib/finch/telephony.db"
//
// Retention:
//
//	retention:
//	  default_days: 14       # -1 disables auto purge, 0 purges immediately
//	  schedule: "0 3 * * *"  # cron expression for the daily sweep
//	  sweep_on_boot: true
//
// The default_days value only seeds the retention preference; the live
// value lives in the conversation store and can be changed at runtime
// with finch-admin.
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Metrics:
//
//	metrics:
//	  enabled: false
//	  addr: "127.0.0.1:9090"
//	  path: "/metrics"
//
// # Live Reload
//
// Watcher watches the config file and invokes a callback with each
// successfully reloaded config. Configs that fail to parse or validate
// are discarded; the previous config stays active.
package config
