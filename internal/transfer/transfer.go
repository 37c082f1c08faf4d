// Package transfer читает и пишет JSON-бэкап галереи.
package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"storymatrix/internal/models"
)

// Document каноничный формат бэкапа.
type Document struct {
	Moments []models.Moment `json:"moments"`
	Stories []models.Story  `json:"stories"`
}

// Imported результат разбора. Коллекция, которой не было в документе,
// остаётся в галерее как есть, поэтому присутствие отмечается отдельно.
type Imported struct {
	Moments    []models.Moment
	Stories    []models.Story
	HasMoments bool
	HasStories bool
}

var validate = validator.New()

type momentRef struct {
	ID  string `validate:"required"`
	URL string `validate:"required"`
}

type storyRef struct {
	ID string `validate:"required"`
}

// Export сериализует галерею с отступами.
func Export(moments []models.Moment, stories []models.Story) ([]byte, error) {
	doc := Document{Moments: moments, Stories: stories}
	if doc.Moments == nil {
		doc.Moments = []models.Moment{}
	}
	if doc.Stories == nil {
		doc.Stories = []models.Story{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup: %w", err)
	}
	return data, nil
}

// ExportFilename имя файла бэкапа по дате (UTC).
func ExportFilename(t time.Time) string {
	return "gallery-backup-" + t.UTC().Format("2006-01-02") + ".json"
}

// Import разбирает бэкап. Принимаются три формы:
// {moments, stories}, старые ключи {photos, albums} и голый массив старых фото.
// Любая ошибка отклоняет документ целиком.
func Import(data []byte) (*Imported, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", models.ErrMalformedImport)
	}

	var out Imported
	switch trimmed[0] {
	case '[':
		moments, err := decodeMoments(trimmed)
		if err != nil {
			return nil, err
		}
		out.Moments, out.HasMoments = moments, true
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedImport, err)
		}
		if body, ok := pick(raw, "moments", "photos"); ok {
			moments, err := decodeMoments(body)
			if err != nil {
				return nil, err
			}
			out.Moments, out.HasMoments = moments, true
		}
		if body, ok := pick(raw, "stories", "albums"); ok {
			stories, err := decodeStories(body)
			if err != nil {
				return nil, err
			}
			out.Stories, out.HasStories = stories, true
		}
		if !out.HasMoments && !out.HasStories {
			return nil, fmt.Errorf("%w: no moments or stories found", models.ErrMalformedImport)
		}
	default:
		return nil, fmt.Errorf("%w: expected an object or an array", models.ErrMalformedImport)
	}
	return &out, nil
}

// pick возвращает первое из ключей, под которым лежит массив.
func pick(raw map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, key := range keys {
		body, ok := raw[key]
		if !ok {
			continue
		}
		body = bytes.TrimSpace(body)
		if len(body) > 0 && body[0] == '[' {
			return body, true
		}
	}
	return nil, false
}

func decodeMoments(body []byte) ([]models.Moment, error) {
	var moments []models.Moment
	if err := json.Unmarshal(body, &moments); err != nil {
		return nil, fmt.Errorf("%w: moments: %v", models.ErrMalformedImport, err)
	}
	for i, m := range moments {
		if err := validate.Struct(momentRef{ID: m.ID, URL: m.URL}); err != nil {
			return nil, fmt.Errorf("%w: moment #%d: %v", models.ErrMalformedImport, i, err)
		}
	}
	if moments == nil {
		moments = []models.Moment{}
	}
	return moments, nil
}

func decodeStories(body []byte) ([]models.Story, error) {
	stories, err := DecodeStories(body)
	if err != nil {
		return nil, fmt.Errorf("%w: stories: %v", models.ErrMalformedImport, err)
	}
	for i, s := range stories {
		if err := validate.Struct(storyRef{ID: s.ID}); err != nil {
			return nil, fmt.Errorf("%w: story #%d: %v", models.ErrMalformedImport, i, err)
		}
	}
	return stories, nil
}
