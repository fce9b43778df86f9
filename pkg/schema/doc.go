// Package schema infers JSON Schema descriptions of route handler inputs
// and outputs.
//
// Inference runs through a Dispatcher holding an ordered list of backends.
// The first backend that claims a handler wins:
//
//	structured (struct-typed parameters, highest priority)
//	declared   (pre-built schema documents attached out-of-band)
//	typehints  (bare signature types, fallback)
//
// The backend list is built once at dispatcher construction and never
// mutated, so a dispatcher is safe to share across concurrent scans.
// Backends hold no per-handler state.
//
// Schemas are plain map[string]any JSON Schema fragments with at least
// {"type": "object", "properties": {...}} for inputs.
package schema
