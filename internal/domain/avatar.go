package domain

// AnimalType names one of the avatar animals a student can pick.
type AnimalType string

// AnimalColor names one of the avatar colours.
type AnimalColor string

const (
	AnimalRabbit  AnimalType = "lapin"
	AnimalCat     AnimalType = "chat"
	AnimalDog     AnimalType = "chien"
	AnimalHamster AnimalType = "hamster"
	AnimalTurtle  AnimalType = "tortue"
	AnimalParrot  AnimalType = "perroquet"
)

const (
	ColorPink      AnimalColor = "rose"
	ColorBlue      AnimalColor = "bleu"
	ColorGreen     AnimalColor = "vert"
	ColorOrange    AnimalColor = "orange"
	ColorPurple    AnimalColor = "violet"
	ColorYellow    AnimalColor = "jaune"
	ColorRed       AnimalColor = "rouge"
	ColorTurquoise AnimalColor = "turquoise"
)

// DefaultAnimalName is given to new students until they name their animal.
const DefaultAnimalName = "Mon animal"

// Avatar is the student's personalised animal.
type Avatar struct {
	Type  AnimalType  `json:"type"`
	Color AnimalColor `json:"color"`
	Name  string      `json:"name"`
}

// DefaultAvatar returns the avatar assigned on first join.
func DefaultAvatar() Avatar {
	return Avatar{Type: AnimalRabbit, Color: ColorPink, Name: DefaultAnimalName}
}

// IsPersonalized reports whether the student already named their animal.
func (a Avatar) IsPersonalized() bool {
	return a.Name != "" && a.Name != DefaultAnimalName
}

// AnimalInfo describes an animal for display.
type AnimalInfo struct {
	Type      AnimalType `json:"type"`
	Emoji     string     `json:"emoji"`
	Label     string     `json:"label"`
	Food      string     `json:"food"`
	FoodEmoji string     `json:"foodEmoji"`
}

// ColorInfo describes an avatar colour for display.
type ColorInfo struct {
	Color AnimalColor `json:"color"`
	Hex   string      `json:"hex"`
	Label string      `json:"label"`
}

var animals = []AnimalInfo{
	{Type: AnimalRabbit, Emoji: "🐰", Label: "Lapin", Food: "carotte", FoodEmoji: "🥕"},
	{Type: AnimalCat, Emoji: "🐱", Label: "Chat", Food: "poisson", FoodEmoji: "🐟"},
	{Type: AnimalDog, Emoji: "🐶", Label: "Chien", Food: "os", FoodEmoji: "🦴"},
	{Type: AnimalHamster, Emoji: "🐹", Label: "Hamster", Food: "graine", FoodEmoji: "🌻"},
	{Type: AnimalTurtle, Emoji: "🐢", Label: "Tortue", Food: "feuille", FoodEmoji: "🍃"},
	{Type: AnimalParrot, Emoji: "🦜", Label: "Perroquet", Food: "fruit", FoodEmoji: "🍎"},
}

var colors = []ColorInfo{
	{Color: ColorPink, Hex: "#FF6B9D", Label: "Rose"},
	{Color: ColorBlue, Hex: "#4ECDC4", Label: "Bleu"},
	{Color: ColorGreen, Hex: "#A8E6CF", Label: "Vert"},
	{Color: ColorOrange, Hex: "#FFB347", Label: "Orange"},
	{Color: ColorPurple, Hex: "#9B59B6", Label: "Violet"},
	{Color: ColorYellow, Hex: "#FFD93D", Label: "Jaune"},
	{Color: ColorRed, Hex: "#E74C3C", Label: "Rouge"},
	{Color: ColorTurquoise, Hex: "#1ABC9C", Label: "Turquoise"},
}

// Animals returns the animal catalog in display order.
func Animals() []AnimalInfo {
	out := make([]AnimalInfo, len(animals))
	copy(out, animals)
	return out
}

// Colors returns the colour catalog in display order.
func Colors() []ColorInfo {
	out := make([]ColorInfo, len(colors))
	copy(out, colors)
	return out
}

// LookupAnimal returns catalog info for an animal type.
func LookupAnimal(t AnimalType) (AnimalInfo, bool) {
	for _, a := range animals {
		if a.Type == t {
			return a, true
		}
	}
	return AnimalInfo{}, false
}

// LookupColor returns catalog info for a colour.
func LookupColor(c AnimalColor) (ColorInfo, bool) {
	for _, col := range colors {
		if col.Color == c {
			return col, true
		}
	}
	return ColorInfo{}, false
}
