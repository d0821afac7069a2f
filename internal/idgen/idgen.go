package idgen

import "github.com/google/uuid"

// NewFunc produces a fresh identifier. It is a variable so tests can stub it,
// for example to force an identifier collision.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier. The default implementation is
// a random (version 4) UUID, so collision probability is negligible.
func New() string { return NewFunc() }
