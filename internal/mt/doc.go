// Package mt is the generic machine translation adapter. It talks to a
// TranslatePlus-shaped endpoint and trips a circuit breaker after repeated
// failures so callers fall through to their fallback without waiting on a
// dead service.
package mt
