package bucket

// Active возвращает невыполненные цели в порядке добавления
func Active(items []Item) []Item {
	return filter(items, func(i Item) bool { return !i.Completed })
}

// Completed возвращает выполненные цели в порядке добавления
func Completed(items []Item) []Item {
	return filter(items, func(i Item) bool { return i.Completed })
}

func filter(items []Item, keep func(Item) bool) []Item {
	res := []Item{}
	for _, item := range items {
		if keep(item) {
			res = append(res, item)
		}
	}
	return res
}

func Find(items []Item, id string) (int, bool) {
	for ind, item := range items {
		if item.ID == id {
			return ind, true
		}
	}
	return -1, false
}
