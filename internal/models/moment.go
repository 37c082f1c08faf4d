package models

// MomentSource помечает происхождение момента. На поведение ядра не влияет.
type MomentSource string

const (
	SourceUpload MomentSource = "upload"
	SourceURL    MomentSource = "url"
	SourceSample MomentSource = "sample"
)

// Moment описывает одно медиа (картинку) галереи.
// Поля совпадают с форматом экспорта/хранилища, поэтому json теги менять нельзя.
type Moment struct {
	ID        string          `json:"id"`
	URL       string          `json:"url"`
	Base64    string          `json:"base64,omitempty"` // Пусто для моментов по ссылке
	MimeType  string          `json:"mimeType,omitempty"`
	Source    MomentSource    `json:"source,omitempty"`
	Metadata  *MomentMetadata `json:"metadata,omitempty"` // nil = аннотаций нет (не то же самое, что пустые)
	CreatedAt int64           `json:"createdAt"`          // Unix milliseconds
}

// DialogueType определяет вид диалогового окна.
type DialogueType string

const (
	DialogueSpeech    DialogueType = "speech"
	DialogueNarration DialogueType = "narration"
)

// CharacterPosition задаёт сторону, с которой показывается портрет персонажа.
type CharacterPosition string

const (
	PositionLeft  CharacterPosition = "left"
	PositionRight CharacterPosition = "right"
)

// MomentMetadata хранит аннотации момента. Принадлежит моменту целиком и при сохранении
// заменяется полностью, без слияния по полям.
type MomentMetadata struct {
	// Поля поиска (остались от старой PhotoMetadata)
	Caption  string   `json:"caption"`
	Tags     []string `json:"tags"`
	Category string   `json:"category,omitempty"`

	OverlayText        string    `json:"overlayText,omitempty"`
	OverlayFontSize    int       `json:"overlayFontSize,omitempty"`
	OverlayFontFamily  string    `json:"overlayFontFamily,omitempty"`
	OverlayColor       string    `json:"overlayColor,omitempty"`
	OverlayEffect      Effect    `json:"overlayEffect,omitempty"`
	OverlayWordEffects []*Effect `json:"overlayWordEffects,omitempty"` // nil-слот = наследовать глобальный эффект

	Stickers []Sticker `json:"stickers,omitempty"` // Порядок = порядок отрисовки, последний сверху

	IsDialogue        bool              `json:"isDialogue,omitempty"`
	DialogueType      DialogueType      `json:"dialogueType,omitempty"`
	CharacterName     string            `json:"characterName,omitempty"`
	CharacterPortrait string            `json:"characterPortrait,omitempty"`
	CharacterPosition CharacterPosition `json:"characterPosition,omitempty"`

	Choices []Choice `json:"choices,omitempty"`
}

// Clone возвращает глубокую копию метаданных, чтобы буфер редактора и хранилище
// никогда не делили слайсы.
func (m *MomentMetadata) Clone() *MomentMetadata {
	if m == nil {
		return nil
	}
	out := *m
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	out.OverlayWordEffects = CloneWordEffects(m.OverlayWordEffects)
	if m.Stickers != nil {
		out.Stickers = make([]Sticker, len(m.Stickers))
		for i := range m.Stickers {
			out.Stickers[i] = m.Stickers[i].Clone()
		}
	}
	if m.Choices != nil {
		out.Choices = append([]Choice(nil), m.Choices...)
	}
	return &out
}

// Clone копирует момент вместе с метаданными.
func (m Moment) Clone() Moment {
	m.Metadata = m.Metadata.Clone()
	return m
}
