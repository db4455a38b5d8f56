// badges/catalog.go - Static badge catalog
package badges

const (
	EcoStarter   = "eco_starter"
	BikeLover    = "bike_lover"
	VegDay       = "veg_day"
	EarthHero    = "earth_hero"
	GreenStreak  = "green_streak"
	CarbonCutter = "carbon_cutter"
	TransitPro   = "transit_pro"
	SolarSaver   = "solar_saver"
)

// Badge is a one-time, non-revocable milestone.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var catalog = []Badge{
	{ID: EcoStarter, Name: "Eco Starter", Icon: "🌿", Description: "Logged your first carbon entry"},
	{ID: BikeLover, Name: "Bike Lover", Icon: "🚴", Description: "Used cycle or walk for 5 days"},
	{ID: VegDay, Name: "Veg Day", Icon: "🍃", Description: "Chose vegetarian meals for 3 days"},
	{ID: EarthHero, Name: "Earth Hero", Icon: "🏆", Description: "Reduced weekly emissions by 20%"},
	{ID: GreenStreak, Name: "Green Streak", Icon: "🔥", Description: "7 day logging streak"},
	{ID: CarbonCutter, Name: "Carbon Cutter", Icon: "✂️", Description: "Under 5kg CO₂ for a day"},
	{ID: TransitPro, Name: "Transit Pro", Icon: "🚌", Description: "Used public transport 10 times"},
	{ID: SolarSaver, Name: "Solar Saver", Icon: "☀️", Description: "Electricity usage under 5kWh for a week"},
}

// Catalog returns a copy of all badges in display order.
func Catalog() []Badge {
	out := make([]Badge, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a badge by id.
func Lookup(id string) (Badge, bool) {
	for _, b := range catalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}
