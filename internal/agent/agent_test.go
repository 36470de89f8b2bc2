package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tomvane/innocents/domain"
	"github.com/tomvane/innocents/internal/reason"
)

// scriptedReasoner drives the loop from a test-provided function.
type scriptedReasoner struct {
	propose func(msgs []reason.Message, tools []reason.ToolSpec) (*reason.Proposal, error)
	calls   int
}

func (s *scriptedReasoner) Propose(_ context.Context, msgs []reason.Message, tools []reason.ToolSpec) (*reason.Proposal, error) {
	s.calls++
	return s.propose(msgs, tools)
}

type fakeSearcher struct {
	queries  []string
	passages []domain.RetrievedPassage
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]domain.RetrievedPassage, error) {
	f.queries = append(f.queries, query)
	return f.passages, f.err
}

type fakeWeather struct {
	places []string
	units  []string
	report *domain.WeatherReport
	err    error
	block  bool // block until ctx expires
}

func (f *fakeWeather) Current(ctx context.Context, place, units string) (*domain.WeatherReport, error) {
	f.places = append(f.places, place)
	f.units = append(f.units, units)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.report, f.err
}

func jsonArgs(t *testing.T, kv map[string]string) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(kv)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return data
}

// routeOnce proposes the given calls on the first round and synthesizes the
// collected tool outputs on the second.
func routeOnce(calls ...reason.ToolCall) *scriptedReasoner {
	return &scriptedReasoner{propose: func(msgs []reason.Message, tools []reason.ToolSpec) (*reason.Proposal, error) {
		for _, m := range msgs {
			if m.Role == "tool" {
				var outputs []string
				for _, mm := range msgs {
					if mm.Role == "tool" {
						outputs = append(outputs, mm.Content)
					}
				}
				return &reason.Proposal{Answer: strings.Join(outputs, "\n\n")}, nil
			}
		}
		return &reason.Proposal{ToolCalls: calls}, nil
	}}
}

func TestRunWeatherOnly(t *testing.T) {
	searcher := &fakeSearcher{}
	weather := &fakeWeather{report: &domain.WeatherReport{
		Location: "Tokyo", Country: "JP", Units: "metric", Temp: 22.5, FeelsLike: 23.0,
		Conditions: "clear sky", Humidity: 55, WindSpeed: 3.2,
	}}
	r := routeOnce(reason.ToolCall{ID: "tc1", Name: toolGetWeather, Args: jsonArgs(t, map[string]string{"location": "Tokyo"})})

	a := New(r, searcher, weather, nil, Options{})
	result, err := a.Run(context.Background(), nil, "Weather in Tokyo?")
	assert.NoError(t, err)

	assert.Equal(t, []string{"Tokyo"}, weather.places)
	assert.Empty(t, searcher.queries, "retriever must not run for weather-only queries")
	assert.Contains(t, result.Answer, "Temperature: 22.5°C")
	assert.Contains(t, result.Answer, "Clear sky")
	assert.Len(t, result.Invocations, 1)
	assert.False(t, result.Invocations[0].Failed)
}

func TestRunBookOnly(t *testing.T) {
	searcher := &fakeSearcher{passages: []domain.RetrievedPassage{
		{Text: "the Sphinx is grand in its loneliness", ChapterNumber: "LVIII", Score: 0.9},
	}}
	weather := &fakeWeather{}
	r := routeOnce(reason.ToolCall{ID: "tc1", Name: toolSearchBook, Args: jsonArgs(t, map[string]string{"query": "What did Twain think about the Sphinx?"})})

	a := New(r, searcher, weather, nil, Options{})
	result, err := a.Run(context.Background(), nil, "What did Twain think about the Sphinx?")
	assert.NoError(t, err)

	assert.Len(t, searcher.queries, 1)
	assert.Contains(t, searcher.queries[0], "Sphinx")
	assert.Empty(t, weather.places, "weather must not run for book-only queries")
	assert.Contains(t, result.Answer, "grand in its loneliness")
	assert.Contains(t, result.Answer, "[Chapter LVIII]")
}

func TestRunBothTools(t *testing.T) {
	searcher := &fakeSearcher{passages: []domain.RetrievedPassage{
		{Text: "Venice by moonlight", ChapterNumber: "XXI", Score: 0.8},
	}}
	weather := &fakeWeather{report: &domain.WeatherReport{
		Location: "Venice", Country: "IT", Units: "metric", Temp: 18, FeelsLike: 18,
		Conditions: "mist", Humidity: 80, WindSpeed: 2,
	}}
	r := routeOnce(
		reason.ToolCall{ID: "tc1", Name: toolSearchBook, Args: jsonArgs(t, map[string]string{"query": "Twain in Venice"})},
		reason.ToolCall{ID: "tc2", Name: toolGetWeather, Args: jsonArgs(t, map[string]string{"location": "Venice"})},
	)

	a := New(r, searcher, weather, nil, Options{})
	result, err := a.Run(context.Background(), nil, "What did Twain say about Venice, and what's the weather there now?")
	assert.NoError(t, err)

	assert.Len(t, searcher.queries, 1)
	assert.Equal(t, []string{"Venice"}, weather.places)
	assert.Contains(t, result.Answer, "Venice by moonlight")
	assert.Contains(t, result.Answer, "Current weather in Venice, IT")
	assert.Len(t, result.Invocations, 2)
}

func TestRunWeatherImperialUnits(t *testing.T) {
	weather := &fakeWeather{report: &domain.WeatherReport{
		Location: "New York", Country: "US", Units: "imperial", Temp: 68.0, FeelsLike: 66.2,
		Conditions: "clear sky", Humidity: 40, WindSpeed: 7.0,
	}}
	r := routeOnce(reason.ToolCall{ID: "tc1", Name: toolGetWeather, Args: jsonArgs(t, map[string]string{
		"location": "New York",
		"units":    "imperial",
	})})

	a := New(r, &fakeSearcher{}, weather, nil, Options{})
	result, err := a.Run(context.Background(), nil, "Weather in New York, in Fahrenheit?")
	assert.NoError(t, err)

	assert.Equal(t, []string{"imperial"}, weather.units)
	assert.Contains(t, result.Answer, "Temperature: 68.0°F")
	assert.Contains(t, result.Answer, "Wind Speed: 7.0 mph")
}

func TestRunOutOfDomainRefusal(t *testing.T) {
	searcher := &fakeSearcher{}
	weather := &fakeWeather{}
	refusal := "I specialize in Mark Twain's 'The Innocents Abroad' and current weather information, so I can't help with quantum physics."
	r := &scriptedReasoner{propose: func(_ []reason.Message, _ []reason.ToolSpec) (*reason.Proposal, error) {
		return &reason.Proposal{Answer: refusal}, nil
	}}

	a := New(r, searcher, weather, nil, Options{})
	result, err := a.Run(context.Background(), nil, "Explain quantum physics")
	assert.NoError(t, err)

	assert.Empty(t, searcher.queries)
	assert.Empty(t, weather.places)
	assert.Empty(t, result.Invocations)
	assert.Contains(t, result.Answer, "Innocents Abroad")
	assert.Equal(t, 1, result.Rounds)
}

func TestRunWeatherNotFoundDegrades(t *testing.T) {
	weather := &fakeWeather{err: &domain.LocationNotFoundError{Location: "Zzyzxx"}}
	r := routeOnce(reason.ToolCall{ID: "tc1", Name: toolGetWeather, Args: jsonArgs(t, map[string]string{"location": "Zzyzxx"})})

	a := New(r, &fakeSearcher{}, weather, nil, Options{})
	result, err := a.Run(context.Background(), nil, "Weather in Zzyzxx?")
	assert.NoError(t, err)

	assert.Len(t, result.Invocations, 1)
	assert.True(t, result.Invocations[0].Failed)
	assert.Contains(t, result.Answer, "Zzyzxx", "degradation note must name the unresolved location")
	assert.NotContains(t, result.Answer, "Temperature:")
}

func TestRunWeatherTimeoutDegrades(t *testing.T) {
	weather := &fakeWeather{block: true}
	r := routeOnce(reason.ToolCall{ID: "tc1", Name: toolGetWeather, Args: jsonArgs(t, map[string]string{"location": "Paris"})})

	a := New(r, &fakeSearcher{}, weather, nil, Options{ToolTimeout: 20 * time.Millisecond})
	result, err := a.Run(context.Background(), nil, "Weather in Paris?")
	assert.NoError(t, err)

	assert.True(t, result.Invocations[0].Failed)
	assert.Contains(t, result.Answer, "timed out")
}

func TestRunEmptyRetrievalStillAnswers(t *testing.T) {
	searcher := &fakeSearcher{passages: nil}
	r := routeOnce(reason.ToolCall{ID: "tc1", Name: toolSearchBook, Args: jsonArgs(t, map[string]string{"query": "submarines"})})

	a := New(r, searcher, &fakeWeather{}, nil, Options{})
	result, err := a.Run(context.Background(), nil, "What did Twain write about submarines?")
	assert.NoError(t, err)

	assert.Len(t, result.Invocations, 1)
	assert.False(t, result.Invocations[0].Failed, "an empty retrieval is not a failure")
	assert.Contains(t, result.Answer, "No passages")
}

func TestRunIterationCapForcesTermination(t *testing.T) {
	searcher := &fakeSearcher{passages: []domain.RetrievedPassage{
		{Text: "a passage", ChapterNumber: "I", Score: 0.5},
	}}
	// Always propose another tool call while tools are offered; answer only
	// once tools are withheld.
	r := &scriptedReasoner{propose: func(_ []reason.Message, tools []reason.ToolSpec) (*reason.Proposal, error) {
		if len(tools) == 0 {
			return &reason.Proposal{Answer: "Partial answer from what was gathered."}, nil
		}
		return &reason.Proposal{ToolCalls: []reason.ToolCall{
			{ID: "tc", Name: toolSearchBook, Args: json.RawMessage(`{"query":"more"}`)},
		}}, nil
	}}

	a := New(r, searcher, &fakeWeather{}, nil, Options{MaxRounds: 3})
	done := make(chan struct{})
	var result *domain.AgentResult
	var err error
	go func() {
		result, err = a.Run(context.Background(), nil, "loop forever")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("agent run did not terminate")
	}

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Rounds)
	assert.Len(t, result.Invocations, 3)
	assert.Equal(t, "Partial answer from what was gathered.", result.Answer)
}

func TestRunIterationCapFallbackWhenSynthesisFails(t *testing.T) {
	searcher := &fakeSearcher{passages: []domain.RetrievedPassage{
		{Text: "salvaged passage", ChapterNumber: "II", Score: 0.5},
	}}
	r := &scriptedReasoner{propose: func(_ []reason.Message, tools []reason.ToolSpec) (*reason.Proposal, error) {
		if len(tools) == 0 {
			return nil, fmt.Errorf("model overloaded")
		}
		return &reason.Proposal{ToolCalls: []reason.ToolCall{
			{ID: "tc", Name: toolSearchBook, Args: json.RawMessage(`{"query":"more"}`)},
		}}, nil
	}}

	a := New(r, searcher, &fakeWeather{}, nil, Options{MaxRounds: 2})
	result, err := a.Run(context.Background(), nil, "loop")
	assert.NoError(t, err)
	assert.Contains(t, result.Answer, "salvaged passage")
}

func TestRunReasonerFailureIsFatal(t *testing.T) {
	r := &scriptedReasoner{propose: func(_ []reason.Message, _ []reason.ToolSpec) (*reason.Proposal, error) {
		return nil, fmt.Errorf("connection refused")
	}}

	a := New(r, &fakeSearcher{}, &fakeWeather{}, nil, Options{})
	_, err := a.Run(context.Background(), nil, "hello")
	assert.True(t, errors.Is(err, domain.ErrReasonerUnavailable))
}

type blockingPolicy struct{}

func (blockingPolicy) Evaluate(_ context.Context, input interface{}) (string, string, error) {
	m := input.(map[string]interface{})
	if m["tool_name"] == toolGetWeather {
		return "block", "missing location", nil
	}
	return "allow", "", nil
}

func TestRunPolicyBlockDegrades(t *testing.T) {
	weather := &fakeWeather{}
	r := routeOnce(reason.ToolCall{ID: "tc1", Name: toolGetWeather, Args: json.RawMessage(`{"location":""}`)})

	a := New(r, &fakeSearcher{}, weather, blockingPolicy{}, Options{})
	result, err := a.Run(context.Background(), nil, "weather please")
	assert.NoError(t, err)

	assert.Empty(t, weather.places, "blocked tool must not execute")
	assert.True(t, result.Invocations[0].Failed)
	assert.Contains(t, result.Answer, "was not run")
}

func TestRunHistoryIsForwarded(t *testing.T) {
	var sawHistory bool
	r := &scriptedReasoner{propose: func(msgs []reason.Message, _ []reason.ToolSpec) (*reason.Proposal, error) {
		for _, m := range msgs {
			if m.Role == "assistant" && strings.Contains(m.Content, "Rome is lovely") {
				sawHistory = true
			}
		}
		return &reason.Proposal{Answer: "ok"}, nil
	}}

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "Tell me about Rome"},
		{Role: domain.RoleAssistant, Content: "Rome is lovely in Twain's telling."},
	}
	a := New(r, &fakeSearcher{}, &fakeWeather{}, nil, Options{})
	_, err := a.Run(context.Background(), history, "And the weather there?")
	assert.NoError(t, err)
	assert.True(t, sawHistory)
}
