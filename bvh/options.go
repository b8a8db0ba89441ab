package bvh

import (
	"fmt"
	"strings"
)

// SplitStrategy selects how interior node split planes are chosen.
type SplitStrategy uint8

const (
	// Split at the midpoint of the node's longest axis.
	CentralSplit SplitStrategy = iota

	// Evaluate the surface area heuristic at every primitive centroid on
	// every axis. O(n^2) per node.
	FullSAH

	// Evaluate the surface area heuristic at a fixed number of evenly
	// spaced planes per axis.
	BinnedSAH
)

var strategyNames = map[SplitStrategy]string{
	CentralSplit: "central",
	FullSAH:      "sah",
	BinnedSAH:    "binned",
}

func (s SplitStrategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Parse a split strategy name (central, sah, binned).
func ParseSplitStrategy(name string) (SplitStrategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, sName := range strategyNames {
		if sName == name {
			return s, nil
		}
	}
	return BinnedSAH, fmt.Errorf("bvh: unknown split strategy %q", name)
}

// Acceptance controls how the best split cost is compared against the
// cost of leaving the node as a leaf.
type Acceptance uint8

const (
	// Split only if the split cost is strictly lower than the leaf cost.
	StrictlyCheaper Acceptance = iota

	// Split if the split cost is lower than or equal to the leaf cost.
	CheaperOrEqual
)

func (a Acceptance) accept(splitCost, leafCost float32) bool {
	if a == CheaperOrEqual {
		return splitCost <= leafCost
	}
	return splitCost < leafCost
}

const (
	// Default number of bins for BinnedSAH.
	DefaultBins = 11

	// Nodes with fewer primitives than this are never split.
	DefaultMaxLeafPrims = 4

	// Maximum tree depth.
	DefaultMaxDepth = 64
)

// Options control BVH construction.
type Options struct {
	Strategy   SplitStrategy
	Acceptance Acceptance

	// Number of bins used by BinnedSAH. Values < 2 select DefaultBins.
	Bins int

	// Nodes with fewer primitives than this become leaves.
	MaxLeafPrims int

	// Nodes at this depth become leaves.
	MaxDepth int
}

// Get the default build options: binned SAH with 11 bins, strictly
// cheaper acceptance, no splits below 4 primitives and a max depth of 64.
func DefaultOptions() Options {
	return Options{
		Strategy:     BinnedSAH,
		Acceptance:   StrictlyCheaper,
		Bins:         DefaultBins,
		MaxLeafPrims: DefaultMaxLeafPrims,
		MaxDepth:     DefaultMaxDepth,
	}
}

func (o Options) withDefaults() Options {
	if o.Bins < 2 {
		o.Bins = DefaultBins
	}
	if o.MaxLeafPrims < 1 {
		o.MaxLeafPrims = DefaultMaxLeafPrims
	}
	if o.MaxDepth < 1 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}
