// Package syncer orchestrates layout synchronization between a root network
// layout and an instance layout.
//
// # Overview
//
// A [Syncer] takes a [Request] naming the source and target layouts and the
// instance relating them, picks one [Strategy] and runs it on a private
// clone of the target:
//
//   - DirectCopy copies node properties and link geometry verbatim
//   - FreshLayout lays out every region from the source and packs the
//     regions in topological order of their cross-region links
//   - Incremental keeps existing geometry and places only what is new
//   - SyncToExisting rebuilds named regions and keeps all others
//
// Every call moves through the states Selected, Prepared, Placed, Routed,
// Colored and Committed, or ends in RolledBack. States never move backward
// and strategies may skip the ones they have no work for.
//
// # Transactions
//
// The target changes once, when the scratch layout is committed through
// [layout.Layout.ReplaceContents] inside a transaction of the configured
// [txn.Sink]. A stop requested by the progress monitor rolls the
// transaction back and surfaces as a CANCELLED error; routing and color
// failures do not, they are returned in [Outcome].Result.
//
// # Progress
//
// Each strategy splits progress into statically weighted phases. FreshLayout
// for example spends a quarter each on decomposition, merging, squashing and
// finalizing. Reported progress never decreases.
//
// # Concurrency
//
// Layouts are not safe for concurrent mutation. A [Worker] serializes calls
// from many goroutines on one goroutine.
package syncer
