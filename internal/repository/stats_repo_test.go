package repository

import (
	"testing"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"github.com/stretchr/testify/require"
)

func TestStatsAggregates(t *testing.T) {
	db := openTestDB(t)
	ledger := newTestLedger(t, db)
	referrals := NewReferralRepository(db, ledger)
	stats := NewStatsRepository(db)

	a := createTestCustomer(t, db, 1)
	b := createTestCustomer(t, db, 2)
	c := createTestCustomer(t, db, 3)

	// a crosses into Silver, b and c stay Bronze.
	_, err := ledger.RecordEarn(a.ID, 1500, domain.RefTypeOrder, "o1", "")
	require.NoError(t, err)
	_, err = ledger.RecordSpend(a.ID, 300, domain.RefTypeRedemption, "r1", "")
	require.NoError(t, err)

	buckets, err := stats.TierDistribution()
	require.NoError(t, err)
	require.Len(t, buckets, 5)
	require.Equal(t, int64(2), buckets[0].Customers) // Bronze
	require.Equal(t, int64(1), buckets[1].Customers) // Silver

	ref := &models.Referral{ReferrerID: a.ID, Code: "X", ReferredID: b.ID, ReferrerPoints: 200, ReferredPoints: 100}
	require.NoError(t, referrals.Create(ref))
	require.NoError(t, referrals.Create(&models.Referral{ReferrerID: a.ID, Code: "X", ReferredID: c.ID, ReferrerPoints: 200, ReferredPoints: 100}))
	require.NoError(t, referrals.Complete(ref.ID))
	_, err = referrals.Disburse(ref.ID)
	require.NoError(t, err)

	ranks, err := stats.TopReferrers(5)
	require.NoError(t, err)
	require.Len(t, ranks, 1)
	require.Equal(t, a.ID, ranks[0].ReferrerID)
	require.Equal(t, int64(2), ranks[0].Referrals)
	require.Equal(t, int64(1), ranks[0].Rewarded)

	conv, err := stats.ReferralConversion()
	require.NoError(t, err)
	require.Equal(t, int64(2), conv.Total)
	require.Equal(t, int64(1), conv.Converted)
	require.InDelta(t, 0.5, conv.Rate, 0.001)

	totals, err := stats.Totals()
	require.NoError(t, err)
	require.Equal(t, int64(3), totals.Customers)
	require.Equal(t, totals.PointsIssued-totals.PointsSpent, totals.OutstandingBalance,
		"outstanding balance reconciles with the ledger")
	require.Equal(t, int64(2), totals.Referrals)
}
