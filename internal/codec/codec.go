package codec

import (
	"errors"
	"fmt"
	"strings"

	"bucketList/internal/models/bucket"
)

// ErrMalformed - сохранённые данные не разбираются или нарушают инварианты
var ErrMalformed = errors.New("malformed bucket list")

type Codec interface {
	Name() string
	Encode([]bucket.Item) ([]byte, error)
	Decode([]byte) ([]bucket.Item, error)
}

func ByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON{}, nil
	case "yaml", "yml":
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("неизвестный кодек %q", name)
	}
}

// validate проверяет прочитанный список целиком
func validate(items []bucket.Item) error {
	seen := make(map[string]struct{}, len(items))
	for ind, item := range items {
		if item.ID == "" {
			return fmt.Errorf("%w: элемент %d без id", ErrMalformed, ind)
		}
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("%w: повторный id %s", ErrMalformed, item.ID)
		}
		seen[item.ID] = struct{}{}

		if strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("%w: пустой title у %s", ErrMalformed, item.ID)
		}
		if !item.Consistent() {
			return fmt.Errorf("%w: completed и completedAt расходятся у %s", ErrMalformed, item.ID)
		}
	}
	return nil
}
