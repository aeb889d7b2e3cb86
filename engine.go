// Package engine identifies the opsline engine build
package engine

const (
	// Name is the service name reported in logs and health responses
	Name = "opsline-engine"

	// Version is the engine release version
	Version = "1.0.0"
)
