// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, logging, runtime metrics and debug introspection for the
// hioload-udp media driver.
//
// Provides:
//   - YAML/env configuration loading with file watch
//   - zap logger construction with optional file rotation
//   - Metrics registry and debug probes readable by operators
//
// Nothing in this package runs on the transport polling path.
package control
