// Package identity provides signed-token issuance and verification for a
// small set of cooperating services.
//
// The package covers four concerns: an HS256 token service, a bun-backed
// store that keeps at most one refresh token per account, a compensating
// provisioning flow that creates an account locally and a matching profile
// record in a remote service, and a fiber controller exposing the register,
// login, and validate endpoints. The perimeter filter that verifies bearer
// tokens and injects trusted identity headers lives in
// middleware/gatewayware.
package identity
