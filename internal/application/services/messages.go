package services

import "fmt"

// texts are the user-facing strings the gateway puts in a Reply
type texts struct {
	missingKey string
	failure    string

	issueWeatherKey string
	issueCloudKey   string
	issueLocalURL   string
	issueLocalDown  string
}

var localizedTexts = map[string]texts{
	"bg": {
		missingKey: "OpenAI API ключ не е намерен. Моля, добавете го в настройките.",
		failure:    "Извинявам се, но възникна грешка при комуникацията с езиковия модел. Моля, опитайте отново по-късно. Грешка: %v",

		issueWeatherKey: "OpenWeather API ключ не е конфигуриран",
		issueCloudKey:   "OpenAI API ключ е нужен за избрания модел",
		issueLocalURL:   "Ollama API URL не е конфигуриран",
		issueLocalDown:  "Грешка при свързване с Ollama сървъра",
	},
	"en": {
		missingKey: "OpenAI API key not found. Please add it in the settings.",
		failure:    "Sorry, an error occurred while talking to the language model. Please try again later. Error: %v",

		issueWeatherKey: "OpenWeather API key is not configured",
		issueCloudKey:   "An OpenAI API key is required for the selected model",
		issueLocalURL:   "Ollama API URL is not configured",
		issueLocalDown:  "Cannot reach the Ollama server",
	},
}

// textsFor falls back to Bulgarian for unknown languages
func textsFor(language string) texts {
	if t, ok := localizedTexts[language]; ok {
		return t
	}
	return localizedTexts["bg"]
}

func (t texts) failureText(err error) string {
	return fmt.Sprintf(t.failure, err)
}
