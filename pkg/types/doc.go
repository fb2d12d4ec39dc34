// Package types defines the Entry and Format interfaces, the link wire shape,
// write options, and standard error types for the Mosaic store.
// See docs/ARCHITECTURE.md § Main Interface.
package types
