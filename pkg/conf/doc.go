// Package conf is a helper for asgibench configuration from both command line
// interface and environment variables.
// It gives the ability to register options which will be fetched from CLI
// input OR an environment variable with the ASGIBENCH_ prefix, e.g. the
// "requests" flag can also be set through ASGIBENCH_REQUESTS.
package conf
