// Package policy gates tool invocations through an OPA rego policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_policy.decision"),
		rego.Module("tool_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the tool policy. Input is a map with keys tool_name and
// args. Returns the decision ("allow" or "block") and an optional reason.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy defines a default; an empty result means it didn't load.
		return "allow", "no decision", nil
	}

	val := results[0].Expressions[0].Value
	switch v := val.(type) {
	case string:
		return v, "", nil
	case map[string]interface{}:
		decision, _ := v["decision"].(string)
		reason, _ := v["reason"].(string)
		if decision == "" {
			decision = "allow"
		}
		return decision, reason, nil
	}

	return "allow", "unexpected return type", nil
}

// DefaultPolicy is the tool policy shipped with the service: only the three
// travel-advisor tools are callable, and calls with a missing primary
// argument are blocked before they reach the network.
const DefaultPolicy = `
package tool_policy

import rego.v1

known_tools := {"search_innocents_abroad", "list_twain_locations", "get_weather"}

default decision := {"decision": "allow", "reason": ""}

decision := {"decision": "block", "reason": "unknown tool"} if {
	not known_tools[input.tool_name]
}

decision := {"decision": "block", "reason": "missing query"} if {
	input.tool_name == "search_innocents_abroad"
	not valid_string(input.args.query)
}

decision := {"decision": "block", "reason": "missing region"} if {
	input.tool_name == "list_twain_locations"
	not valid_string(input.args.region)
}

decision := {"decision": "block", "reason": "missing location"} if {
	input.tool_name == "get_weather"
	not valid_string(input.args.location)
}

valid_string(s) if {
	is_string(s)
	s != ""
}
`
