// Package config loads the target configuration.
//
// Configuration is layered: built-in defaults, then each file layer (JSON or
// YAML, deep-merged in order), then TARGET_JSONL_* environment overrides.
// Validation runs last.
//
//	loader := config.NewLoader()
//	loader.AddLayer("target.yaml")
//	loader.EnableValidation(true)
//	cfg, err := loader.Load()
//
// Environment overrides use the option path in upper case with dots replaced
// by underscores, e.g. TARGET_JSONL_S3_BUCKET or TARGET_JSONL_ADD_RECORD_METADATA.
package config
