package repository

import (
	"loyalty/internal/models"

	"gorm.io/gorm"
)

type OperatorRepository struct {
	db *gorm.DB
}

func NewOperatorRepository(db *gorm.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

func (r *OperatorRepository) GetByEmail(email string) (*models.Operator, error) {
	var op models.Operator
	if err := r.db.Where("email = ?", email).First(&op).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *OperatorRepository) Create(op *models.Operator) error {
	return r.db.Create(op).Error
}

func (r *OperatorRepository) CountByRole(role string) (int64, error) {
	var n int64
	err := r.db.Model(&models.Operator{}).Where("role = ?", role).Count(&n).Error
	return n, err
}
