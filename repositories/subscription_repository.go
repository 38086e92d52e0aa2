package repositories

import (
	"context"

	"foodgram/models"

	"gorm.io/gorm"
)

// SubscriptionRepository stores follower -> author edges.
type SubscriptionRepository interface {
	// Create fails with gorm.ErrDuplicatedKey when the edge exists.
	Create(ctx context.Context, userID, authorID uint) error
	// Delete fails with gorm.ErrRecordNotFound when the edge does not exist.
	Delete(ctx context.Context, userID, authorID uint) error
	// AuthorIDsIn returns the subset of authorIDs the user follows.
	AuthorIDsIn(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error)
	// ListAuthors returns one page of the users followed by userID, most
	// recently followed first.
	ListAuthors(ctx context.Context, userID uint, offset, limit int) ([]models.User, int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, userID, authorID uint) error {
	return r.db.WithContext(ctx).Create(&models.Subscribe{UserID: userID, AuthorID: authorID}).Error
}

func (r *subscriptionRepository) Delete(ctx context.Context, userID, authorID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscribe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subscriptionRepository) AuthorIDsIn(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	followed := make(map[uint]bool)
	if userID == 0 || len(authorIDs) == 0 {
		return followed, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Subscribe{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}

func (r *subscriptionRepository) ListAuthors(ctx context.Context, userID uint, offset, limit int) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN subscribes ON subscribes.author_id = users.id").
		Where("subscribes.user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err := q.Order("subscribes.created_at DESC, subscribes.id DESC").
		Offset(offset).Limit(limit).
		Find(&authors).Error
	if err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}
