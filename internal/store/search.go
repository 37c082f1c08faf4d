package store

import (
	"strings"

	"storymatrix/internal/models"
)

// Filter оставляет моменты, у которых подпись или один из тегов содержит
// query без учёта регистра. Пустой запрос (или из одних пробелов) ничего не фильтрует.
func Filter(list []models.Moment, query string) []models.Moment {
	if strings.TrimSpace(query) == "" {
		return list
	}
	q := strings.ToLower(query)
	out := make([]models.Moment, 0, len(list))
	for _, m := range list {
		if matches(m.Metadata, q) {
			out = append(out, m)
		}
	}
	return out
}

func matches(meta *models.MomentMetadata, q string) bool {
	if meta == nil {
		return false
	}
	if strings.Contains(strings.ToLower(meta.Caption), q) {
		return true
	}
	for _, tag := range meta.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
