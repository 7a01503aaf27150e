package toolkit

import "github.com/LubyRuffy/rtprobe/responsesapi"

const (
	WeatherToolName = "get_weather"
	// WeatherResultBody 是往返校验使用的固定天气结果。
	WeatherResultBody = `{"temperature": 68, "unit": "fahrenheit", "condition": "foggy"}`
)

// WeatherMarkers 是续写文本中应出现的、来自 WeatherResultBody 的标记（任一即可）。
var WeatherMarkers = []string{"68", "foggy"}

func WeatherDefinition() responsesapi.Tool {
	return responsesapi.FunctionTool(WeatherToolName, "Get current weather for a location", map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"location": map[string]interface{}{
				"type":        "string",
				"description": "City name",
			},
			"unit": map[string]interface{}{
				"type": "string",
				"enum": []string{"celsius", "fahrenheit"},
			},
		},
		"required": []string{"location"},
	})
}

// NewWeather 返回总是报告 68°F、有雾的天气工具。
func NewWeather() *StaticTool {
	return &StaticTool{
		Decl:     WeatherDefinition(),
		Body:     WeatherResultBody,
		BodyType: responsesapi.ContentTypeJSON,
	}
}
