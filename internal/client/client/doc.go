// Package client talks to the activation server over gRPC.
//
// GRPCClient wraps the generated-style ActivationService client, applies a
// per-call timeout and maps gRPC status codes onto sentinel errors that
// callers match with errors.Is: ErrUnavailable, ErrUnauthorized,
// ErrAlreadyRegistered, ErrAlreadyActive and ErrInvalidInput.
package client
