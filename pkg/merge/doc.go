// Package merge places region parts relative to each other and splices them
// back into one layout.
//
// # Overview
//
// A synchronization lays out every region on its own and then has to put the
// pieces together again. This package provides the steps:
//
//   - [OrderRegions] turns cross-region links into an acyclic region graph
//     and arranges regions into columns
//   - [Pack] places regions that have no position yet next to the regions
//     they are linked with
//   - [GrowToFit] makes room for regions whose content grew, without letting
//     regions that were apart overlap
//   - [MergeAll] translates the parts and splices nodes, link trees, group
//     properties and overlay modules into a copy of the master layout
//   - [Squash] removes surplus empty grid lines after a fresh layout
//
// # Retry Passes
//
// Placement and routing are coupled: a region placement leaves corridors
// that may be too narrow for the links between regions. [Engine] runs an
// [Attempt] with a growing border and expansion until routing succeeds. A
// pass whose only failures are landing pad collisions ends the schedule
// early, because extra room between regions cannot free a pad. When every
// pass fails, the least bad outcome is kept.
package merge
