// Package idgen generates request identifiers. It lives under `internal`
// because callers must treat identifiers as opaque strings and never rely on
// their exact shape.
package idgen
