// Package core provides the foundational domain types used by Stride. It
// defines the core abstractions for:
//
//   - Messages (role-based conversation records exchanged with models)
//   - Tool calls, capability declarations and call results
//   - Plan steps with their status lifecycle
//   - State (immutable execution-state snapshots with copy-on-write mutators)
//   - Events (tagged engine-level / inference-level stream records)
//
// The package intentionally keeps implementation concerns (scheduling,
// strategies, model adapters, persistence) out of scope so that every other
// package can depend on it without cycles.
package core
