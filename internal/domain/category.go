package domain

// Category is the rainfall class of a 3-hour prediction.
type Category string

const (
	CategoryNoRain       Category = "No Rain"
	CategoryLightRain    Category = "Light Rain"
	CategoryModerateRain Category = "Moderate Rain"
	CategoryHeavyRain    Category = "Heavy Rain"
)

// Tone is the display emphasis of a category badge.
type Tone string

const (
	ToneOff     Tone = "off"
	ToneNormal  Tone = "normal"
	ToneInverse Tone = "inverse"
)

// Categorize maps a non-negative 3-hour rainfall accumulation in mm to a category:
//   - < 0.5 no rain
//   - 0.5 to 5 inclusive light
//   - above 5 to 10 inclusive moderate
//   - above 10 heavy
func Categorize(mm float64) Category {
	switch {
	case mm < 0.5:
		return CategoryNoRain
	case mm <= 5:
		return CategoryLightRain
	case mm <= 10:
		return CategoryModerateRain
	default:
		return CategoryHeavyRain
	}
}

// Tone returns the display emphasis for the category.
func (c Category) Tone() Tone {
	switch c {
	case CategoryNoRain:
		return ToneOff
	case CategoryHeavyRain:
		return ToneInverse
	default:
		return ToneNormal
	}
}
