// Package config loads the acceptance test configuration of a connector and
// the fixtures it points at.
//
// A configuration file looks like:
//
//	connector:
//	  command: ["python", "main.py"]
//	  env_file: .env
//	config_path: secrets/config.json
//	configured_catalog_path: integration_tests/configured_catalog.json
//	timeout: 20m
//	tests:
//	  incremental:
//	    threshold_days: 2
//	    cursor_paths:
//	      users: ["bookmarks", "users", "updated_at"]
//	    future_state_path: integration_tests/abnormal_state.json
//	    skip_comprehensive_incremental_tests: false
//	    min_batches_to_test: 10
//
// Fixture paths are keys in a blob bucket. The bucket defaults to the
// directory holding the configuration file; set fixtures to any
// gocloud.dev/blob URL (for example gs://bucket/prefix) to read them
// elsewhere.
package config
