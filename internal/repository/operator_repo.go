package repository

import (
	"context"

	"go-stock-engine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type operatorRepo struct {
	db *gorm.DB
}

func NewOperatorRepo(db *gorm.DB) OperatorRepository {
	return &operatorRepo{db}
}

func (r *operatorRepo) FindByUsername(ctx context.Context, username string) (*model.Operator, error) {
	var operator model.Operator
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&operator).Error; err != nil {
		return nil, notFound(err)
	}
	return &operator, nil
}

func (r *operatorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	var operator model.Operator
	if err := r.db.WithContext(ctx).First(&operator, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &operator, nil
}

func (r *operatorRepo) Create(ctx context.Context, operator *model.Operator) error {
	return r.db.WithContext(ctx).Create(operator).Error
}

func (r *operatorRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	return r.db.WithContext(ctx).Model(&model.Operator{}).Where("id = ?", id).Update("password", hashedPassword).Error
}

func (r *operatorRepo) UpdateTokenVersion(ctx context.Context, id uuid.UUID, version string) error {
	return r.db.WithContext(ctx).Model(&model.Operator{}).Where("id = ?", id).Update("token_version", version).Error
}
