package transfer

import (
	"encoding/json"

	"storymatrix/internal/models"
)

// legacyStory история в любом из форматов: старые записи хранили
// photoIds и coverPhotoUrl вместо momentIds и coverMomentUrl.
type legacyStory struct {
	models.Story
	MomentIDs      []string `json:"momentIds"`
	PhotoIDs       []string `json:"photoIds"`
	CoverMomentURL string   `json:"coverMomentUrl"`
	CoverPhotoURL  string   `json:"coverPhotoUrl"`
}

// DecodeStories разбирает массив историй и переносит старые поля на новые,
// если новых нет.
func DecodeStories(data []byte) ([]models.Story, error) {
	var raw []legacyStory
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]models.Story, 0, len(raw))
	for _, r := range raw {
		s := r.Story
		s.MomentIDs = r.MomentIDs
		if s.MomentIDs == nil {
			s.MomentIDs = r.PhotoIDs
		}
		if s.MomentIDs == nil {
			s.MomentIDs = []string{}
		}
		s.CoverMomentURL = r.CoverMomentURL
		if s.CoverMomentURL == "" {
			s.CoverMomentURL = r.CoverPhotoURL
		}
		out = append(out, s)
	}
	return out, nil
}
