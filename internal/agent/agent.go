// Package agent implements the routing agent: it decides which tools a
// query needs, executes them under timeouts and policy, and synthesizes a
// single answer, with a hard cap on reasoning rounds.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tomvane/innocents/domain"
	"github.com/tomvane/innocents/internal/reason"
)

// Searcher is the knowledge retriever contract the agent depends on.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]domain.RetrievedPassage, error)
}

// WeatherLookup is the weather tool contract the agent depends on. An empty
// units string means metric.
type WeatherLookup interface {
	Current(ctx context.Context, place, units string) (*domain.WeatherReport, error)
}

// PolicyEngine gates tool invocations before execution.
type PolicyEngine interface {
	Evaluate(ctx context.Context, input interface{}) (string, string, error)
}

// Options tune the agent's control loop.
type Options struct {
	MaxRounds   int           // reasoning rounds before forced termination
	ToolTimeout time.Duration // deadline per tool call
	TopK        int           // retrieval depth
}

func (o *Options) defaults() {
	if o.MaxRounds <= 0 {
		o.MaxRounds = 6
	}
	if o.ToolTimeout <= 0 {
		o.ToolTimeout = 10 * time.Second
	}
	if o.TopK <= 0 {
		o.TopK = 3
	}
}

// Agent is the routing agent.
type Agent struct {
	reasoner reason.Client
	searcher Searcher
	weather  WeatherLookup
	policy   PolicyEngine
	opts     Options
}

// New creates a routing agent. policy may be nil, in which case every
// proposed call is executed.
func New(reasoner reason.Client, searcher Searcher, weather WeatherLookup, policy PolicyEngine, opts Options) *Agent {
	opts.defaults()
	return &Agent{
		reasoner: reasoner,
		searcher: searcher,
		weather:  weather,
		policy:   policy,
		opts:     opts,
	}
}

// Run executes one agent run for the query against the supplied history
// snapshot. History must already be windowed to the most recent N messages;
// it is never mutated. The only error returned is a reasoning-capability
// failure; every tool failure degrades into the answer instead.
func (a *Agent) Run(ctx context.Context, history []domain.Message, query string) (*domain.AgentResult, error) {
	msgs := make([]reason.Message, 0, len(history)+2)
	msgs = append(msgs, reason.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant:
			msgs = append(msgs, reason.Message{Role: string(m.Role), Content: m.Content})
		}
	}
	msgs = append(msgs, reason.Message{Role: "user", Content: query})

	var invocations []domain.ToolInvocation
	rounds := 0

	for rounds < a.opts.MaxRounds {
		rounds++

		proposal, err := a.reasoner.Propose(ctx, msgs, toolSpecs())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReasonerUnavailable, err)
		}

		if len(proposal.ToolCalls) == 0 {
			return &domain.AgentResult{Answer: proposal.Answer, Invocations: invocations, Rounds: rounds}, nil
		}

		msgs = append(msgs, reason.Message{Role: "assistant", ToolCalls: proposal.ToolCalls})
		for _, tc := range proposal.ToolCalls {
			output, failed := a.executeToolCall(ctx, tc)
			invocations = append(invocations, domain.ToolInvocation{
				ToolName: tc.Name,
				Args:     tc.Args,
				Output:   output,
				Failed:   failed,
			})
			msgs = append(msgs, reason.Message{Role: "tool", ToolCallID: tc.ID, Content: output})
		}
	}

	// Iteration cap hit. One synthesis pass with tools withheld, so the run
	// still ends with whatever partial results were collected.
	log.Printf("WARN: agent hit round cap (%d), forcing synthesis", a.opts.MaxRounds)
	msgs = append(msgs, reason.Message{
		Role:    "system",
		Content: "Tool budget exhausted. Answer now using only the tool results already gathered, noting anything that is missing.",
	})
	proposal, err := a.reasoner.Propose(ctx, msgs, nil)
	if err == nil && strings.TrimSpace(proposal.Answer) != "" {
		return &domain.AgentResult{Answer: proposal.Answer, Invocations: invocations, Rounds: rounds}, nil
	}
	if err != nil {
		log.Printf("WARN: forced synthesis failed: %v", err)
	}
	return &domain.AgentResult{Answer: fallbackAnswer(invocations), Invocations: invocations, Rounds: rounds}, nil
}

// executeToolCall runs one proposed call and always returns text: a tool
// result on success, a degradation note on any failure. The bool reports
// failure for the trace.
func (a *Agent) executeToolCall(ctx context.Context, tc reason.ToolCall) (string, bool) {
	args := map[string]interface{}{}
	if len(tc.Args) > 0 {
		if err := json.Unmarshal(tc.Args, &args); err != nil {
			log.Printf("WARN: tool %s got malformed arguments: %v", tc.Name, err)
			return fmt.Sprintf("The %s tool was not run because its arguments could not be read.", tc.Name), true
		}
	}

	if a.policy != nil {
		decision, why, err := a.policy.Evaluate(ctx, map[string]interface{}{
			"tool_name": tc.Name,
			"args":      args,
		})
		if err != nil {
			log.Printf("ERROR: policy evaluation failed for %s: %v", tc.Name, err)
		} else if decision == "block" {
			log.Printf("WARN: policy blocked tool %s: %s", tc.Name, why)
			return fmt.Sprintf("The %s tool was not run (%s).", tc.Name, why), true
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.opts.ToolTimeout)
	defer cancel()

	switch tc.Name {
	case toolSearchBook:
		query := stringArg(args, "query")
		passages, err := a.searcher.Search(callCtx, query, a.opts.TopK)
		if err != nil {
			log.Printf("ERROR: book search failed: %v", err)
			return fmt.Sprintf("The book archive could not be searched for %q right now.", query), true
		}
		return formatPassages(query, passages), false

	case toolListLocations:
		region := stringArg(args, "region")
		passages, err := a.searcher.Search(callCtx, "places cities locations Twain visited in "+region, a.opts.TopK)
		if err != nil {
			log.Printf("ERROR: location search failed: %v", err)
			return fmt.Sprintf("The book archive could not be searched for places in %s right now.", region), true
		}
		return formatLocations(region, passages), false

	case toolGetWeather:
		location := stringArg(args, "location")
		report, err := a.weather.Current(callCtx, location, stringArg(args, "units"))
		if err != nil {
			return weatherDegradation(location, err), true
		}
		return formatWeather(report), false
	}

	// Unknown tools are normally blocked by policy; this is the backstop.
	return fmt.Sprintf("The tool %q does not exist.", tc.Name), true
}

// weatherDegradation phrases a weather failure so the synthesis step can
// distinguish "no such place" from "try again later".
func weatherDegradation(location string, err error) string {
	switch {
	case domain.IsLocationNotFound(err):
		return fmt.Sprintf("The location %q could not be found. The city name may be misspelled or not recognized; ask the user to verify the modern city name.", location)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("The weather lookup for %q timed out. Current conditions are unavailable right now.", location)
	default:
		log.Printf("ERROR: weather lookup failed for %s: %v", location, err)
		return fmt.Sprintf("Weather information for %q is temporarily unavailable.", location)
	}
}

// fallbackAnswer assembles a deterministic best-effort answer from the tool
// trace when even forced synthesis is impossible.
func fallbackAnswer(invocations []domain.ToolInvocation) string {
	var parts []string
	for _, inv := range invocations {
		if !inv.Failed && inv.Output != "" {
			parts = append(parts, inv.Output)
		}
	}
	if len(parts) == 0 {
		return "I apologize, but I couldn't gather the information needed to answer that. Please try again."
	}
	return "Here is what I was able to find before running out of time:\n\n" + strings.Join(parts, "\n\n")
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
