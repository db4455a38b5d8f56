// services/tips.go - Personalised eco tips
package services

import "sort"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

type Tip struct {
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

const (
	maxTips = 3

	// Average daily kg over the week.
	highDailyKg = 15
	lowDailyKg  = 5
)

var (
	tipStartTracking = Tip{"general", "Start Tracking Today!", "Log your first carbon entry to get personalized eco-tips based on your lifestyle.", PriorityHigh}

	tipTravelHigh   = Tip{"travel", "Reduce Travel Emissions", "Travel makes up most of your footprint. Try carpooling, public transport, or cycling for short trips.", PriorityHigh}
	tipTravelMedium = Tip{"travel", "Optimize Your Commute", "Consider remote work days or combine errands to reduce travel frequency.", PriorityMedium}

	tipEnergyHigh   = Tip{"electricity", "Cut Energy Use", "Switch to LED bulbs, unplug devices when not in use, and consider energy-efficient appliances.", PriorityHigh}
	tipEnergyMedium = Tip{"electricity", "Smart Energy Habits", "Use natural light during the day and set thermostats efficiently to save energy.", PriorityMedium}

	tipFoodHigh   = Tip{"food", "Mindful Eating", "Consider more plant-based meals. Even one meat-free day per week makes a difference!", PriorityHigh}
	tipFoodMedium = Tip{"food", "Sustainable Food Choices", "Buy local and seasonal produce to reduce food transportation emissions.", PriorityMedium}

	tipHighFootprint = Tip{"trend", "High Carbon Footprint", "Your emissions are above average. Focus on your biggest category first for maximum impact.", PriorityHigh}
	tipGreatProgress = Tip{"trend", "Great Progress!", "You're doing well! Keep up the sustainable habits and inspire others.", PriorityLow}

	tipDaily = Tip{"general", "Daily Tip", "Carry a reusable water bottle and shopping bags to reduce single-use plastic waste.", PriorityLow}
)

// GenerateTips picks up to three tips from the week's category shares and
// daily average, highest priority first.
func GenerateTips(d Dashboard) []Tip {
	if d.EntriesCount == 0 {
		return []Tip{tipStartTracking}
	}

	var tips []Tip
	travel, electricity, food := shares(d.Categories)

	switch {
	case travel > 50:
		tips = append(tips, tipTravelHigh)
	case travel > 30:
		tips = append(tips, tipTravelMedium)
	}
	switch {
	case electricity > 40:
		tips = append(tips, tipEnergyHigh)
	case electricity > 20:
		tips = append(tips, tipEnergyMedium)
	}
	switch {
	case food > 40:
		tips = append(tips, tipFoodHigh)
	case food > 20:
		tips = append(tips, tipFoodMedium)
	}

	avgDaily := d.WeeklyTotal / weekDays
	if avgDaily > highDailyKg {
		tips = append(tips, tipHighFootprint)
	} else if avgDaily < lowDailyKg && d.EntriesCount > 3 {
		tips = append(tips, tipGreatProgress)
	}

	if len(tips) < 2 {
		tips = append(tips, tipDaily)
	}

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority.rank() < tips[j].Priority.rank()
	})
	if len(tips) > maxTips {
		tips = tips[:maxTips]
	}
	return tips
}

// shares returns each category as a percentage of their sum.
func shares(c Categories) (travel, electricity, food float64) {
	total := c.total()
	if total <= 0 {
		return 0, 0, 0
	}
	return c.Travel / total * 100, c.Electricity / total * 100, c.Food / total * 100
}
