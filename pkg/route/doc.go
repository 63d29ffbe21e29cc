// Package route implements the orthogonal link router.
//
// [Router.MultiPassLayout] routes every requested link that lacks geometry.
// A new link first tries to branch off the existing bus of its source's link
// tree; the runs of each tree are cached per source so siblings do not rescan
// the whole tree. Candidate paths have at most three bends (straight, L, Z
// and U shapes through nearby channels) and are tried cheapest first against
// the placement grid. The final run always enters the target perpendicular
// to the side carrying the landing pad.
//
// When no legal path exists the link still gets a crude straight-then-turn
// path and is reported as failed; if its pad is held by another source the
// failure is recorded as a pad collision, which more space cannot fix. With
// SwitchPads set the router may move a link to any free pad of its target.
//
// After routing, [config.LayoutOptions.OptimizationPasses] passes of
// [Router.OptimizeLinks] reduce corners on each link's private tail. Frozen
// points and exempt links are never moved.
//
// Cancellation is cooperative: the router polls [progress.Check] before
// every link and every pass.
package route
