package bucket

import (
	"strings"
	"time"
)

// Item - одна цель из списка. Ключи JSON совпадают с форматом мобильного
// приложения, поэтому сохранённый список читается обеими сторонами.
type Item struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	ImageURI    string     `json:"imageUri,omitempty" yaml:"imageUri,omitempty"`
	Completed   bool       `json:"completed" yaml:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	Notes       string     `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Timestamp приводит время к UTC с точностью до миллисекунд, как toISOString
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func New(id, title string, now time.Time, options ...ItemOption) Item {
	item := Item{
		ID:        id,
		Title:     strings.TrimSpace(title),
		CreatedAt: Timestamp(now),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&item)
		}
	}
	return item
}

// Complete отмечает цель выполненной
func (i *Item) Complete(now time.Time) {
	completedAt := Timestamp(now)
	i.Completed = true
	i.CompletedAt = &completedAt
}

// Reopen возвращает цель в активные
func (i *Item) Reopen() {
	i.Completed = false
	i.CompletedAt = nil
}

func (i *Item) Toggle(now time.Time) {
	if i.Completed {
		i.Reopen()
		return
	}
	i.Complete(now)
}

// Consistent: completed тогда и только тогда, когда есть completedAt
func (i Item) Consistent() bool {
	return i.Completed == (i.CompletedAt != nil)
}

// Clone копирует цель вместе с указателем completedAt
func (i Item) Clone() Item {
	if i.CompletedAt != nil {
		completedAt := *i.CompletedAt
		i.CompletedAt = &completedAt
	}
	return i
}
