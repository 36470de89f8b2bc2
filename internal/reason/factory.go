package reason

import (
	"log"
	"os"
	"time"
)

const (
	// EnvMode is the environment variable name for mode selection.
	EnvMode = "INNOCENTS_MODE"
	// ModeMock indicates the keyword-routed mock reasoner should be used.
	ModeMock = "MOCK"
)

// NewClient creates a reasoner based on the INNOCENTS_MODE environment
// variable. INNOCENTS_MODE=MOCK returns a MockClient for local development
// without an API key; otherwise a real OpenAI-backed client is returned.
func NewClient(apiKey, baseURL, model string, temperature float32, timeout time.Duration) Client {
	if os.Getenv(EnvMode) == ModeMock {
		log.Println("INNOCENTS_MODE=MOCK detected, using mock reasoner")
		return NewMockClient()
	}
	return NewOpenAI(apiKey, baseURL, model, temperature, timeout)
}
