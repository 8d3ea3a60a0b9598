// Package providers registers the built-in completion provider adapters.
package providers

import (
	"medbrief/internal/completion"
	"medbrief/internal/completion/gemini"
	"medbrief/internal/completion/ollama"
	"medbrief/internal/completion/openai"
)

// RegisterAll registers every built-in provider factory with the completion registry.
func RegisterAll() {
	completion.RegisterProvider("openai", openai.Factory)
	completion.RegisterProvider("gemini", gemini.Factory)
	completion.RegisterProvider("ollama", ollama.Factory)
}
