// Package memory provides an in-process account repository for tests, the
// demo CLI and single-instance deployments.
package memory
