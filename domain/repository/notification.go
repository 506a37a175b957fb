package repository

import (
	"context"

	"foodcollab/domain/model"
)

type INotification interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
}
