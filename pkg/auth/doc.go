// Package auth provides pluggable authentication for the explorer API.
//
// Authenticators vote with three possible outcomes: Yes (valid
// credentials), No (invalid credentials), and Abstain (credentials of a
// type this authenticator does not handle). A chain evaluates voters in
// order and stops at the first non-abstain result, so API key and JWT
// authentication can coexist on one endpoint.
package auth
