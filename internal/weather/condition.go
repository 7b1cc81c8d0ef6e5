package weather

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown      Condition = "unknown"
	ConditionClear        Condition = "clear"
	ConditionClouds       Condition = "clouds"
	ConditionRain         Condition = "rain"
	ConditionDrizzle      Condition = "drizzle"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionSnow         Condition = "snow"
	// ConditionMist groups the atmospheric obscurations.
	ConditionMist Condition = "mist"
)

// ParseCondition maps the service's condition keyword (weather[0].main) to a
// Condition. Matching is exact; anything else is unknown.
func ParseCondition(main string) Condition {
	switch main {
	case "Clear":
		return ConditionClear
	case "Clouds":
		return ConditionClouds
	case "Rain":
		return ConditionRain
	case "Drizzle":
		return ConditionDrizzle
	case "Thunderstorm":
		return ConditionThunderstorm
	case "Snow":
		return ConditionSnow
	case "Mist", "Smoke", "Haze", "Dust", "Fog":
		return ConditionMist
	default:
		return ConditionUnknown
	}
}
