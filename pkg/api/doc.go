// Package api defines the core data types for modgate.
//
// This package provides the types shared across the scanner, schema
// dispatcher, writer, and registry: scanned module descriptors, behavioral
// annotations, the serialized binding record, and the error taxonomy.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O. Schemas are represented as plain map[string]any JSON
// Schema fragments so they serialize without translation.
//
// Core types:
//   - [Module]: Result of scanning one (route, HTTP verb) pair
//   - [Annotations]: Behavioral hints inferred from the HTTP verb
//   - [Binding]: Serialized, registry-ready record describing one module
//   - [Error]: Structured error with type, param, and message
package api
