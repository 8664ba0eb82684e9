// Package types defines the core data structures shared by the rpc-checker packages.
//
// This package contains:
//   - the immutable endpoint configuration of a run
//   - the fixed enumeration of benchmarked JSON-RPC methods
//   - attempt results, per-method aggregates and the run report
//   - the qualitative latency rating
package types
