package agent

import (
	"fmt"
	"strings"

	"github.com/tomvane/innocents/domain"
	"github.com/tomvane/innocents/internal/reason"
)

const (
	toolSearchBook    = "search_innocents_abroad"
	toolListLocations = "list_twain_locations"
	toolGetWeather    = "get_weather"
)

// toolSpecs are the descriptors offered to the reasoner each round.
func toolSpecs() []reason.ToolSpec {
	return []reason.ToolSpec{
		{
			Name:        toolSearchBook,
			Description: "Search Mark Twain's 'The Innocents Abroad' for passages about a place, experience, or opinion. Use for questions about what Twain said, saw, or thought during his travels.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Natural language query about the book, e.g. \"What did Twain think about the Sphinx?\"",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        toolListLocations,
			Description: "Find passages naming the specific cities and places Twain visited in a given country or region.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"region": map[string]interface{}{
						"type":        "string",
						"description": "Country or region name, e.g. \"Italy\"",
					},
				},
				"required": []string{"region"},
			},
		},
		{
			Name:        toolGetWeather,
			Description: "Get current weather for a location. Use the modern city name.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"location": map[string]interface{}{
						"type":        "string",
						"description": "City or place name, e.g. \"Paris\" or \"Rome, Italy\"",
					},
					"units": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"metric", "imperial", "standard"},
						"description": "Measurement system. Use imperial only when the user asks for Fahrenheit; defaults to metric.",
					},
				},
				"required": []string{"location"},
			},
		},
	}
}

// formatPassages renders retrieval hits the way the final answer should cite
// them, with bracketed chapter references.
func formatPassages(query string, passages []domain.RetrievedPassage) string {
	if len(passages) == 0 {
		return fmt.Sprintf("No passages about %q were found in 'The Innocents Abroad'. This may be outside the scope of Twain's travel memoir.", query)
	}

	var b strings.Builder
	b.WriteString("Here's what Mark Twain wrote about that in 'The Innocents Abroad':\n")
	for _, p := range passages {
		ref := "Chapter " + p.ChapterNumber
		if p.ChapterTitle != "" {
			ref += " - " + p.ChapterTitle
		}
		fmt.Fprintf(&b, "\n**[%s]**\n%s\n", ref, strings.TrimSpace(p.Text))
	}
	return b.String()
}

// formatLocations renders region hits as a numbered passage list.
func formatLocations(region string, passages []domain.RetrievedPassage) string {
	if len(passages) == 0 {
		return fmt.Sprintf("No passages about places Twain visited in %s were found.", region)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "References to Twain's travels in %s from 'The Innocents Abroad':\n", region)
	for i, p := range passages {
		fmt.Fprintf(&b, "\n%d. [Chapter %s] %s\n", i+1, p.ChapterNumber, strings.TrimSpace(p.Text))
	}
	return b.String()
}

// formatWeather renders a report in the fixed shape the synthesis step
// quotes from.
func formatWeather(report *domain.WeatherReport) string {
	temp, wind := unitSymbols(report.Units)
	return fmt.Sprintf(
		"Current weather in %s, %s:\nTemperature: %.1f%s (feels like %.1f%s)\nConditions: %s\nHumidity: %d%%\nWind Speed: %.1f %s",
		report.Location, report.Country, report.Temp, temp, report.FeelsLike, temp,
		capitalize(report.Conditions), report.Humidity, report.WindSpeed, wind)
}

// unitSymbols returns the temperature and wind-speed labels for a
// measurement system, matching what the conditions endpoint reports.
func unitSymbols(units string) (string, string) {
	switch units {
	case "imperial":
		return "°F", "mph"
	case "standard":
		return "K", "m/s"
	default:
		return "°C", "m/s"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
