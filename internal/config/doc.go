// Package config provides configuration loading and the centralized path
// layout for the NSE EOD pipeline.
//
// Configuration is read from a YAML file next to the executable and merged
// with NSE_-prefixed environment variables, environment taking precedence.
// All file paths flow through the Paths type so every binary agrees on the
// same directory layout.
package config
