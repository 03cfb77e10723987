package database

import (
	"log"

	"loyalty/config"
	"loyalty/internal/domain"
	"loyalty/internal/models"
	"loyalty/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
		// Duplicate-key errors become gorm.ErrDuplicatedKey; the order dedup and
		// referral-code generation rely on this.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.LoyaltyTier{},
		&models.Customer{},
		&models.PointsTransaction{},
		&models.LoyaltyReward{},
		&models.Referral{},
		&models.ProcessedOrder{},
		&models.Operator{},
		&models.SystemSetting{},
	)
}

// SeedTiers installs the default tier table when none exists. Thresholds are the
// program's launch configuration; admins edit rows in place afterwards.
func SeedTiers(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.LoyaltyTier{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	tiers := []models.LoyaltyTier{
		{TierLevel: 1, Name: "Bronze", MinPoints: 0, DiscountPercentage: 0, Benefits: []string{"member pricing"}},
		{TierLevel: 2, Name: "Silver", MinPoints: 1000, DiscountPercentage: 2, Benefits: []string{"member pricing", "birthday bonus"}},
		{TierLevel: 3, Name: "Gold", MinPoints: 5000, DiscountPercentage: 5, Benefits: []string{"member pricing", "birthday bonus", "free shipping"}},
		{TierLevel: 4, Name: "Platinum", MinPoints: 20000, DiscountPercentage: 8, Benefits: []string{"member pricing", "birthday bonus", "free shipping", "priority support"}},
		{TierLevel: 5, Name: "Diamond", MinPoints: 50000, DiscountPercentage: 12, Benefits: []string{"member pricing", "birthday bonus", "free shipping", "priority support", "concierge"}},
	}
	return db.Create(&tiers).Error
}

// SeedAdmin creates the default ADMIN operator if no admin exists yet.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) {
	operators := repository.NewOperatorRepository(db)
	if count, err := operators.CountByRole(domain.RoleAdmin); err != nil || count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] admin password hash: %v", err)
		return
	}
	op := &models.Operator{Email: cfg.Email, PasswordHash: string(hash), Role: domain.RoleAdmin}
	if err := operators.Create(op); err != nil {
		log.Printf("[seed] admin operator: %v", err)
		return
	}
	log.Printf("[seed] created default admin %s", cfg.Email)
}
