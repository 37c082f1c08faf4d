package stickers

// Selection хранит идентификатор выбранного стикера. Выбран не больше одного.
type Selection struct {
	id string
}

// Select выбирает стикер и возвращает предыдущий выбор.
func (s *Selection) Select(id string) string {
	prev := s.id
	s.id = id
	return prev
}

// Clear снимает выбор (клик по пустому месту кадра).
func (s *Selection) Clear() {
	s.id = ""
}

func (s *Selection) ID() string {
	return s.id
}

func (s *Selection) IsSelected(id string) bool {
	return id != "" && s.id == id
}
