// Package pkg provides the core libraries for regionsync layout
// synchronization.
//
// # Overview
//
// A project holds one root network and any number of instances derived from
// it. Each instance partitions its node occurrences into regions. Regionsync
// keeps the drawing of an instance in step with the drawing of the root: it
// places the instance regions the way the root arranges them, routes links on
// an orthogonal grid, and colors link trees so that every junction reads
// unambiguously. The pkg directory is organized into four areas:
//
//  1. Model - the network facts and the geometric layout state
//  2. Layout core - decomposition, placement, routing and coloring
//  3. Orchestration - strategies, transactions and progress
//  4. Infrastructure - serialization, caching, configuration and errors
//
// # Architecture
//
// The data flow of one synchronization (root to instance):
//
//	Source layout + Instance
//	         ↓
//	    [region] package (split the source into per-region parts)
//	         ↓
//	    [recovery] package (capture cross-region link geometry)
//	         ↓
//	    [merge] package (order regions, place and splice their parts)
//	         ↓
//	    [route] package (route what is still missing on the [grid])
//	         ↓
//	    [color] package (assign link tree colors)
//	         ↓
//	    [txn] package (commit the target layout)
//
// [syncer] drives these steps for each strategy and [pipeline] runs it on
// project documents with caching.
//
// # Main Packages
//
// ## Model
//
// [network] - Read-only facts about the root network and its instances:
// nodes, links, occurrences, regions and virtual subsets.
//
// [layout] - Where nodes sit, how links run, which color each link tree has,
// and region group properties.
//
// [geom] - Points, rectangles and orthogonal paths.
//
// ## Layout Core
//
// [region] - Region decomposition and cross-region link discovery.
//
// [recovery] - Cross-region link geometry captured before placement and
// reapplied after it.
//
// [merge] - Region ordering and the placement engine.
//
// [grid] - The placement grid, an occupancy map of cells used by placement and
// routing.
//
// [route] - The orthogonal link router and its optimization passes.
//
// [color] - Link tree color assignment.
//
// [result] - The routing result every layout component reports.
//
// ## Orchestration
//
// [syncer] - Strategy selection and the synchronization state machine.
//
// [txn] - Layout transactions, deltas and their journals (file, MongoDB).
//
// [progress] - Cooperative progress reporting and cancellation.
//
// [observability] - Hooks for metrics, tracing and logging.
//
// ## Infrastructure
//
// [pipeline] - Sync, route, color and region operations on project documents,
// used by the CLI and the HTTP API.
//
// [graph] - The JSON project document.
//
// [cache] - Result caches (null, file, Redis) and cache keys.
//
// [config] - Layout options and their TOML file form.
//
// [errors] - Structured error codes.
//
// [render/nodelink] - Graphviz rendering of the region graph.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/merge/...    # Specific package
//	go test -run Example       # Examples only
package pkg
