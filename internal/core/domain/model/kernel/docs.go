// Package kernel contains shared value objects used across domain aggregates.
// Value objects are immutable, validated at construction, and compared by value.
package kernel
