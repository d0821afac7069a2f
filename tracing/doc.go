// Package tracing is a thin wrapper around OpenTelemetry so the rest of the
// code-base can emit spans through a couple of helper functions without
// importing the upstream packages directly. Applications that do not need
// tracing simply never call Init; spans then become no-ops.
package tracing
