// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

// Package utils provides small helpers shared across packages.
package utils

// Ptr returns a pointer to the given value.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the value v points to, or the zero value when v is nil.
func Deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
