// Package guard provides a small value object that enforces constructor usage
// for domain types. Embedding a ConstructorGuard in a struct makes the zero
// value detectable, so objects created by bypassing the constructor fail
// validation instead of carrying unvalidated state.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the guard is a zero
// value and no custom error was supplied.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks an object as properly constructed.
// The zero value is invalid; NewConstructorGuard produces a valid guard.
// ConstructorGuard is immutable and safe to copy and use concurrently.
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard creates a guard marking the enclosing object as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for a properly constructed guard. For a zero-value
// guard it returns the supplied error, or ErrDefaultConstructorGuard when the
// supplied error is nil.
func (g ConstructorGuard) Validate(err error) error {
	if g.isConstructed {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrDefaultConstructorGuard
}
