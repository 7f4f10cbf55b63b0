package billing

import (
	"github.com/spectrahq/ghosthunter/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the subscription store contract. Upsert is atomic per
// user_id: concurrent upserts for the same user resolve to one full write
// winning, never a field-level mix of both.
type Repository interface {
	Upsert(sub *models.Subscription) error
	FindByUser(userID string) (*models.Subscription, error)
	FindByProviderSubscriptionID(id string) (*models.Subscription, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a subscription repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Upsert(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_subscription_id",
			"provider_customer_id",
			"status",
			"provider_status",
			"is_dev_mode",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID and created_at reflect the stored row after upsert.
	return r.db.Where("user_id = ?", sub.UserID).First(sub).Error
}

func (r *gormRepository) FindByUser(userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) FindByProviderSubscriptionID(id string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("provider_subscription_id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
