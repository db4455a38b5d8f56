package emissions

// Level classifies a daily total.
type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelAverage   Level = "average"
	LevelHigh      Level = "high"
)

// LevelOf uses half-open bands: [0,3) excellent, [3,6) good, [6,10) average.
func LevelOf(totalKg float64) Level {
	switch {
	case totalKg < 3:
		return LevelExcellent
	case totalKg < 6:
		return LevelGood
	case totalKg < 10:
		return LevelAverage
	default:
		return LevelHigh
	}
}

// Color returns the palette token clients use for the level.
func (l Level) Color() string {
	switch l {
	case LevelExcellent:
		return "emerald"
	case LevelGood:
		return "emerald-light"
	case LevelAverage:
		return "amber"
	case LevelHigh:
		return "coral"
	default:
		return "muted"
	}
}
