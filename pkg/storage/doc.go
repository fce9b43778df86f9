// Package storage defines the binding persistence interface and utilities
// shared across its adapter implementations, including sentinel errors and
// tenant context helpers.
//
// Adapters (memory, postgres) persist the serialized binding records
// produced by scanning so registries can be rebuilt across restarts.
package storage
