package bucket

import "strings"

type ItemOption func(*Item)

func WithDescription(description string) ItemOption {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil
	}
	return func(item *Item) {
		item.Description = description
	}
}

func WithNotes(notes string) ItemOption {
	if notes == "" {
		return nil
	}
	return func(item *Item) {
		item.Notes = notes
	}
}

func WithImageURI(uri string) ItemOption {
	if uri == "" {
		return nil
	}
	return func(item *Item) {
		item.ImageURI = uri
	}
}
