package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func descendingTiers() []LoyaltyTier {
	return []LoyaltyTier{
		{ID: 5, TierLevel: 5, Name: "Diamond", MinPoints: 50000},
		{ID: 4, TierLevel: 4, Name: "Platinum", MinPoints: 20000},
		{ID: 3, TierLevel: 3, Name: "Gold", MinPoints: 5000},
		{ID: 2, TierLevel: 2, Name: "Silver", MinPoints: 1000},
		{ID: 1, TierLevel: 1, Name: "Bronze", MinPoints: 0},
	}
}

func TestResolveTierThresholds(t *testing.T) {
	tiers := descendingTiers()
	cases := []struct {
		qualifying int64
		wantLevel  int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{4999, 2},
		{5000, 3},
		{19999, 3},
		{20000, 4},
		{49999, 4},
		{50000, 5},
		{1000000, 5},
	}
	for _, tc := range cases {
		got := ResolveTier(tiers, tc.qualifying)
		require.NotNil(t, got)
		require.Equal(t, tc.wantLevel, got.TierLevel, "qualifying=%d", tc.qualifying)
	}
}

func TestResolveTierMonotonic(t *testing.T) {
	tiers := descendingTiers()
	prev := 0
	for q := int64(0); q <= 60000; q += 500 {
		got := ResolveTier(tiers, q)
		require.NotNil(t, got)
		require.GreaterOrEqual(t, got.TierLevel, prev, "tier must not decrease as points grow")
		prev = got.TierLevel
	}
}

func TestResolveTierTieOnThreshold(t *testing.T) {
	// Two tiers share a threshold; the higher level wins.
	tiers := []LoyaltyTier{
		{ID: 3, TierLevel: 3, MinPoints: 1000},
		{ID: 2, TierLevel: 2, MinPoints: 1000},
		{ID: 1, TierLevel: 1, MinPoints: 0},
	}
	got := ResolveTier(tiers, 1500)
	require.Equal(t, 3, got.TierLevel)
}

func TestResolveTierFloorDefault(t *testing.T) {
	// No tier qualifies (lowest threshold above balance): lowest tier is the floor.
	tiers := []LoyaltyTier{
		{ID: 2, TierLevel: 2, MinPoints: 1000},
		{ID: 1, TierLevel: 1, MinPoints: 100},
	}
	got := ResolveTier(tiers, 50)
	require.Equal(t, 1, got.TierLevel)

	require.Nil(t, ResolveTier(nil, 50))
}
