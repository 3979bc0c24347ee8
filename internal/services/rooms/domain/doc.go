// Package domain models rooms, their membership sets and the pure state
// transitions that the membership coordinator applies under optimistic
// concurrency. Nothing in this package performs I/O.
package domain
