// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics, configuration snapshot and debug introspection layer.
//
// Provides concurrent-safe state handling primitives including:
//   - Prometheus collectors for queue, worker and delivery activity
//   - A flattened metrics snapshot for periodic stats logging
//   - Named debug probes and process/platform probes
//   - An optional HTTP endpoint exposing /metrics
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
