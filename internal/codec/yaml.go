package codec

import (
	"fmt"

	"bucketList/internal/models/bucket"

	"gopkg.in/yaml.v3"
)

type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Encode(items []bucket.Item) ([]byte, error) {
	if items == nil {
		items = []bucket.Item{}
	}
	b, err := yaml.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("yaml marshal: %w", err)
	}
	return b, nil
}

func (YAML) Decode(data []byte) ([]bucket.Item, error) {
	var items []bucket.Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: yaml unmarshal: %v", ErrMalformed, err)
	}
	if items == nil {
		items = []bucket.Item{}
	}
	if err := validate(items); err != nil {
		return nil, err
	}
	return items, nil
}
