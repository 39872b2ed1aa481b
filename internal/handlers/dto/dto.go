package dto

import (
	"time"

	"bucketList/internal/models/bucket"

	"github.com/dustin/go-humanize"
)

const CompletedOnLayout = "Jan 2, 2006"

type CreateItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
	ImageURI    string `json:"image_uri,omitempty"`
}

// Options переводит необязательные поля запроса в опции цели
func (r CreateItemRequest) Options() []bucket.ItemOption {
	return []bucket.ItemOption{
		bucket.WithDescription(r.Description),
		bucket.WithNotes(r.Notes),
		bucket.WithImageURI(r.ImageURI),
	}
}

type ItemResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	ImageURI     string     `json:"image_uri,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedOn  string     `json:"completed_on,omitempty"`
	CompletedAgo string     `json:"completed_ago,omitempty"`
}

func FromItem(item bucket.Item, now time.Time) ItemResponse {
	res := ItemResponse{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		ImageURI:    item.ImageURI,
		Notes:       item.Notes,
		Completed:   item.Completed,
		CompletedAt: item.CompletedAt,
		CreatedAt:   item.CreatedAt,
	}
	if item.Completed && item.CompletedAt != nil {
		res.CompletedOn = item.CompletedAt.Format(CompletedOnLayout)
		res.CompletedAgo = humanize.RelTime(*item.CompletedAt, now, "ago", "from now")
	}
	return res
}

func FromItemList(items []bucket.Item, now time.Time) []ItemResponse {
	result := make([]ItemResponse, len(items))
	for i, item := range items {
		result[i] = FromItem(item, now)
	}
	return result
}
