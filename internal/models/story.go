package models

// Choice описывает вариант ветвления на диалоговом моменте.
// Пустой TargetMomentID означает "ещё не назначен": выбор инертен.
type Choice struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	TargetMomentID string `json:"targetMomentId"`
}

// Story хранит упорядоченную именованную коллекцию ссылок на моменты.
// Порядок MomentIDs авторитетен и для просмотра, и для проигрывания.
type Story struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	CoverMomentURL string   `json:"coverMomentUrl,omitempty"` // Снимок URL первого момента на момент создания
	MomentIDs      []string `json:"momentIds"`
	CreatedAt      int64    `json:"createdAt"`
}

// Clone копирует историю вместе со списком ID. Список всегда не nil,
// чтобы в JSON уходил [] вместо null.
func (s Story) Clone() Story {
	ids := make([]string, len(s.MomentIDs))
	copy(ids, s.MomentIDs)
	s.MomentIDs = ids
	return s
}
