package service

import "context"

// SlotRepository - одна именованная ячейка хранилища с сериализованным списком
type SlotRepository interface {
	Read(context.Context) ([]byte, error)
	Write(context.Context, []byte) error
	HealthCheck(context.Context) error
	Close() error
}

// SlotVersioner реализуют слоты, которые считают перезаписи (sqlite, postgres, redis)
type SlotVersioner interface {
	Version(context.Context) (int64, error)
}
