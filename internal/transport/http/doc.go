// Package http serves the pipeline's generated outputs over a small
// read-only JSON API. Handlers never write or recompute anything; they read
// the exported datasets and report what the last run produced.
package http
