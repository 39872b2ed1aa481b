package repository

import "errors"

// ErrSlotEmpty - в слоте ещё ничего не сохранено
var ErrSlotEmpty = errors.New("slot is empty")

// ErrSlotClosed - слот уже закрыт
var ErrSlotClosed = errors.New("slot is closed")
