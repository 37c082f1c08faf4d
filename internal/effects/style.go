package effects

// Значения оформления по умолчанию для оверлея без явных настроек.
const (
	DefaultFontSize   = 40
	DefaultFontFamily = "Anton"
	DefaultColor      = "#FFFFFF"
)

// Font описывает шрифт из палитры редактора.
type Font struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Fonts доступные в редакторе.
var Fonts = []Font{
	{Name: "Standard", Value: "Roboto"},
	{Name: "Meme", Value: "Anton"},
	{Name: "Cursive", Value: "Lobster"},
	{Name: "Fun", Value: "Pacifico"},
	{Name: "Typewriter", Value: "Courier New"},
}

// Colors палитра цвета текста.
var Colors = []string{
	"#FFFFFF",
	"#000000",
	"#EF4444",
	"#F59E0B",
	"#10B981",
	"#3B82F6",
	"#8B5CF6",
	"#EC4899",
}

// Style глобальные настройки текста, действующие на каждое слово.
type Style struct {
	FontSize   int    `json:"fontSize"`
	FontFamily string `json:"fontFamily"`
	Color      string `json:"color"`
}

// withDefaults подставляет значения по умолчанию для пустых полей.
func (s Style) withDefaults() Style {
	if s.FontSize <= 0 {
		s.FontSize = DefaultFontSize
	}
	if s.FontFamily == "" {
		s.FontFamily = DefaultFontFamily
	}
	if s.Color == "" {
		s.Color = DefaultColor
	}
	return s
}
