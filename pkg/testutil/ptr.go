// Package testutil provides shared test helper utilities.
package testutil

// Ptr returns a pointer to v. Handy for optional config fields in table tests.
func Ptr[T any](v T) *T { return &v }
