// Package config loads, normalizes, and validates ByteSub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN. The Config type holds every option the pipeline consumes: output
// folder, download retention, and the engine's model, task and language
// directives.
package config
