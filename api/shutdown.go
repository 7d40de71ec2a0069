// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown unifies orderly teardown of long-running components.
type GracefulShutdown interface {
	// Shutdown requests a stop of all internal workers and releases
	// resources. It returns an error if teardown failed.
	Shutdown() error
}
