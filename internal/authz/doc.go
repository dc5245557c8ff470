// Package authz provides the single-principal authorization model and a
// controlled permission-bypass mechanism for internal operations.
//
// Core concepts:
//
//   - Principal: A single authorization identity per request (System/User).
//     Set via NewSystemContext, NewUserContext, or WithPrincipal.
//
//   - Bypass: Controlled permission bypass via RunWithBypass (closure,
//     preferred) or WithBypass (explicit context). Bypass lets internal
//     lookups (credential checks, settings reads) skip the per-request
//     permission gate. All bypass operations are audited.
//
// Usage rules:
//
//  1. Prefer RunWithSystemBypass closures to limit bypass scope.
//  2. When using WithBypass, assign to bypassCtx, never ctx.
//  3. All bypass reasons must be stable strings for audit aggregation.
//  4. Background tasks must declare System principal via NewSystemContext.
package authz
