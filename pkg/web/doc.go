// Package web serves the explorer HTTP API: module listing and inspection,
// optional module execution, OpenAPI document generation, health endpoints,
// and Prometheus metrics.
//
// The explorer is read-only by default. Execution over HTTP must be enabled
// explicitly (Config.AllowExecute) because it exposes registered handlers
// to any caller the auth chain admits.
package web
