package runner

import (
	"context"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/as42sl/airbyte/internal/catalog"
	"github.com/as42sl/airbyte/internal/message"
)

// Runner performs connector reads. Both methods return the complete ordered
// message log of one invocation.
type Runner interface {
	// Read performs a read without state.
	Read(ctx context.Context, config jsontext.Value, cat *catalog.Catalog) ([]message.Message, error)

	// ReadWithState resumes a read from state.
	ReadWithState(ctx context.Context, config jsontext.Value, cat *catalog.Catalog, state jsontext.Value) ([]message.Message, error)
}

type scenarioKey struct{}

// WithScenario labels the invocations made with ctx.
func WithScenario(ctx context.Context, scenario string) context.Context {
	return context.WithValue(ctx, scenarioKey{}, scenario)
}

// ScenarioFrom returns the label set by WithScenario, or "".
func ScenarioFrom(ctx context.Context) string {
	s, _ := ctx.Value(scenarioKey{}).(string)
	return s
}
