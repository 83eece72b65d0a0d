package entities

import (
	"fmt"
	"sort"
)

// PlacementShare defines the percentage of the pool awarded to one placement
type PlacementShare struct {
	Placement int `json:"placement"`
	Percent   int `json:"percent"`
}

// PayoutStructure is the ordered placement-to-percentage split for a pool.
// Percentages are whole numbers and must sum to exactly 100.
type PayoutStructure []PlacementShare

// Validate checks that the structure is non-empty, placements are positive
// and unique, every share is positive, and percentages sum to 100
func (ps PayoutStructure) Validate() error {
	if len(ps) == 0 {
		return fmt.Errorf("payout structure cannot be empty")
	}
	seen := make(map[int]bool, len(ps))
	sum := 0
	for _, share := range ps {
		if share.Placement < 1 {
			return fmt.Errorf("placement must be positive, got %d", share.Placement)
		}
		if seen[share.Placement] {
			return fmt.Errorf("duplicate placement %d", share.Placement)
		}
		seen[share.Placement] = true
		if share.Percent <= 0 {
			return fmt.Errorf("percent for placement %d must be positive, got %d", share.Placement, share.Percent)
		}
		sum += share.Percent
	}
	if sum != 100 {
		return fmt.Errorf("percentages must sum to 100, got %d", sum)
	}
	return nil
}

// Split divides a total amount across placements. Each share is floored to
// whole cents and the remainder goes to the best (lowest) placement, so the
// split always conserves the total exactly.
func (ps PayoutStructure) Split(total int64) map[int]int64 {
	amounts := make(map[int]int64, len(ps))
	var allocated int64
	best := 0
	for _, share := range ps {
		amount := total * int64(share.Percent) / 100
		amounts[share.Placement] = amount
		allocated += amount
		if best == 0 || share.Placement < best {
			best = share.Placement
		}
	}
	if remainder := total - allocated; remainder > 0 && best > 0 {
		amounts[best] += remainder
	}
	return amounts
}

// Placements returns the covered placements in ascending order
func (ps PayoutStructure) Placements() []int {
	placements := make([]int, 0, len(ps))
	for _, share := range ps {
		placements = append(placements, share.Placement)
	}
	sort.Ints(placements)
	return placements
}
