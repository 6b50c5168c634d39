package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/as42sl/airbyte/internal/canon"
)

// toCanonicalMap converts a Report to plain values for canonical JSON.
// Empty reasons and error lists are left out.
func (r *Report) toCanonicalMap() map[string]any {
	results := make([]any, len(r.Results))
	for i, res := range r.Results {
		m := map[string]any{
			"scenario": res.Scenario,
			"status":   string(res.Status),
			"reads":    res.Reads,
			"compared": res.Compared,
		}
		if res.Reason != "" {
			m["reason"] = res.Reason
		}
		if len(res.Errors) > 0 {
			errs := make([]any, len(res.Errors))
			for j, e := range res.Errors {
				errs[j] = e
			}
			m["errors"] = errs
		}
		results[i] = m
	}
	return map[string]any{
		"pass":    r.Pass,
		"results": results,
	}
}

// MarshalCanonical renders the report as RFC 8785 canonical JSON.
func (r *Report) MarshalCanonical() ([]byte, error) {
	return canon.MarshalCanonical(r.toCanonicalMap())
}

// AssertGolden compares a report against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, report *Report) error {
	t.Helper()

	data, err := report.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
