package handlers

import (
	"context"

	"bucketList/internal/models/bucket"
	"bucketList/internal/service"
)

type ItemStore interface {
	Snapshot() service.Snapshot
	IsLoading() bool
	Get(context.Context, string) (bucket.Item, error)
	Add(context.Context, string, ...bucket.ItemOption) (bucket.Item, error)
	ToggleComplete(context.Context, string) (bucket.Item, bool, error)
	DeleteItem(context.Context, string) (bool, error)
	HealthCheck(context.Context) error
	Status(context.Context) service.Status
}

var _ ItemStore = (*service.ItemStore)(nil)
