package repository

import (
	"fmt"
	"testing"

	"loyalty/internal/models"

	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB returns a per-test in-memory database with the schema migrated and
// the tier table seeded, mirroring production bootstrap.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.LoyaltyTier{},
		&models.Customer{},
		&models.PointsTransaction{},
		&models.LoyaltyReward{},
		&models.Referral{},
		&models.ProcessedOrder{},
		&models.Operator{},
		&models.SystemSetting{},
	))
	tiers := []models.LoyaltyTier{
		{TierLevel: 1, Name: "Bronze", MinPoints: 0},
		{TierLevel: 2, Name: "Silver", MinPoints: 1000},
		{TierLevel: 3, Name: "Gold", MinPoints: 5000},
		{TierLevel: 4, Name: "Platinum", MinPoints: 20000},
		{TierLevel: 5, Name: "Diamond", MinPoints: 50000},
	}
	require.NoError(t, db.Create(&tiers).Error)
	return db
}

func newTestLedger(t *testing.T, db *gorm.DB) *LedgerRepository {
	t.Helper()
	return NewLedgerRepository(db, "lifetime", 3)
}

func createTestCustomer(t *testing.T, db *gorm.DB, id uint) *models.Customer {
	t.Helper()
	c, err := NewCustomerRepository(db).Create(id)
	require.NoError(t, err)
	return c
}

// requireBalanceInvariant asserts points_balance == total_earned - total_spent and
// that the balance is never negative.
func requireBalanceInvariant(t *testing.T, db *gorm.DB, customerID uint) *models.Customer {
	t.Helper()
	var c models.Customer
	require.NoError(t, db.First(&c, customerID).Error)
	require.Equal(t, c.TotalPointsEarned-c.TotalPointsSpent, c.PointsBalance)
	require.GreaterOrEqual(t, c.PointsBalance, int64(0))
	return &c
}
