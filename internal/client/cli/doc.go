// Package cli provides the interactive activation command-line client.
//
// It wires configuration and the gRPC API client into a small REPL:
//   - register: create a pending account and trigger the activation email
//   - activate: submit the 4-digit code received by email
//   - resend:   ask for a fresh activation code
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
