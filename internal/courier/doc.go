// File: internal/courier/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package courier implements the downstream receiver of the pipeline and the
// launchers that start it in a separate process or on its own goroutine.
package courier
