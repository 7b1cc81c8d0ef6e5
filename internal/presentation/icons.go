// Package presentation holds the pure formatting and styling rules used by
// the dashboard views.
package presentation

import "github.com/i474232898/weather-dashboard/internal/weather"

// Icon identifies a weather glyph.
type Icon int

const (
	IconCloud Icon = iota
	IconSun
	IconCloudy
	IconCloudRain
	IconCloudDrizzle
	IconCloudLightning
	IconCloudSnow
	IconCloudFog
)

var iconAssets = map[Icon]string{
	IconCloud:          "cloud",
	IconSun:            "sun",
	IconCloudy:         "cloudy",
	IconCloudRain:      "cloud-rain",
	IconCloudDrizzle:   "cloud-drizzle",
	IconCloudLightning: "cloud-lightning",
	IconCloudSnow:      "cloud-snow",
	IconCloudFog:       "cloud-fog",
}

var conditionIcons = map[weather.Condition]Icon{
	weather.ConditionClear:        IconSun,
	weather.ConditionClouds:       IconCloudy,
	weather.ConditionRain:         IconCloudRain,
	weather.ConditionDrizzle:      IconCloudDrizzle,
	weather.ConditionThunderstorm: IconCloudLightning,
	weather.ConditionSnow:         IconCloudSnow,
	weather.ConditionMist:         IconCloudFog,
}

// IconFor selects the icon for a raw condition keyword. Unknown or empty
// conditions get IconCloud.
func IconFor(condition string) Icon {
	if icon, ok := conditionIcons[weather.ParseCondition(condition)]; ok {
		return icon
	}
	return IconCloud
}

// Asset returns the asset name of the icon.
func (i Icon) Asset() string {
	if name, ok := iconAssets[i]; ok {
		return name
	}
	return iconAssets[IconCloud]
}

func (i Icon) String() string {
	return i.Asset()
}
