package codec

import (
	"encoding/json"
	"fmt"

	"bucketList/internal/models/bucket"
)

type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Encode(items []bucket.Item) ([]byte, error) {
	if items == nil {
		items = []bucket.Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

func (JSON) Decode(data []byte) ([]bucket.Item, error) {
	var items []bucket.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: json unmarshal: %v", ErrMalformed, err)
	}
	if items == nil {
		items = []bucket.Item{}
	}
	if err := validate(items); err != nil {
		return nil, err
	}
	return items, nil
}
