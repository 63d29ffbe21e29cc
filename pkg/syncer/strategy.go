package syncer

import (
	"fmt"
	"strings"
)

// Strategy is the synchronization strategy, chosen once per call.
type Strategy int

const (
	// Auto defers the choice to [Choose].
	Auto Strategy = iota

	// DirectCopy copies node properties and link geometry verbatim. Valid
	// only when no region holds two occurrences of one backing node.
	DirectCopy

	// FreshLayout lays out every region from the source, packs the regions
	// and routes the links between them.
	FreshLayout

	// Incremental keeps existing geometry and places only what is new.
	Incremental

	// SyncToExisting rebuilds the named target regions from the source and
	// preserves every other region.
	SyncToExisting
)

var strategyNames = [...]string{"auto", "direct-copy", "fresh-layout", "incremental", "sync-to-existing"}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a strategy name as printed by String.
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q (must be one of: %s)", name, strings.Join(strategyNames[:], ", "))
}

// StrategyNames returns the names accepted by [ParseStrategy].
func StrategyNames() []string {
	return append([]string(nil), strategyNames[:]...)
}

// Direction is the direction of a synchronization in the hierarchy.
type Direction int

const (
	// Down copies from the root network's layout to an instance layout.
	Down Direction = iota

	// Up copies from an instance layout back to the root layout.
	Up
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// ParseDirection converts "down" or "up". The empty string means Down.
func ParseDirection(name string) (Direction, error) {
	switch strings.ToLower(name) {
	case "", "down":
		return Down, nil
	case "up":
		return Up, nil
	}
	return Down, fmt.Errorf("unknown direction %q (must be one of: down, up)", name)
}

// Allows reports whether the strategy is defined for the direction. Upward
// synchronization has no regions to rebuild, so only DirectCopy and
// Incremental apply.
func (d Direction) Allows(s Strategy) bool {
	return d == Down || s == DirectCopy || s == Incremental
}

// State is a step of the synchronization state machine. States only move
// forward.
type State int

const (
	Selected State = iota
	Prepared
	Placed
	Routed
	Colored
	Committed
	RolledBack
)

var stateNames = [...]string{"selected", "prepared", "placed", "routed", "colored", "committed", "rolled-back"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no transition leaves the state.
func (s State) Terminal() bool { return s == Committed || s == RolledBack }

// Choose picks the strategy for a request:
//
//   - named target regions select SyncToExisting
//   - upward synchronization uses DirectCopy when every region holds at most
//     one occurrence of each backing node, Incremental otherwise
//   - an empty target layout is filled by DirectCopy under the same
//     occurrence condition, FreshLayout otherwise
//   - anything else is Incremental
func Choose(req Request) Strategy {
	single := req.Instance.SingleOccurrence()
	switch {
	case req.Direction == Down && len(req.TargetRegions) > 0:
		return SyncToExisting
	case req.Direction == Up && single:
		return DirectCopy
	case req.Direction == Up:
		return Incremental
	case len(req.Target.Nodes) == 0 && single:
		return DirectCopy
	case len(req.Target.Nodes) == 0:
		return FreshLayout
	}
	return Incremental
}
