package harness

// Status is the outcome of one scenario.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusSkip  Status = "skip"
	StatusError Status = "error"
)

// Result is the outcome of one scenario execution.
type Result struct {
	Scenario string `json:"scenario"`
	Status   Status `json:"status"`

	// Reason explains a skip or an error. Empty for pass and fail.
	Reason string `json:"reason,omitempty"`

	// Errors contains assertion failure messages.
	// Empty unless Status is StatusFail.
	Errors []string `json:"errors,omitempty"`

	// Reads counts connector invocations made by the scenario.
	Reads int `json:"reads"`

	// Compared counts record cursors compared against a state cursor.
	Compared int `json:"compared"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Status:   StatusPass,
		Errors:   []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Status = StatusFail
}

// Skip marks the result as skipped.
func (r *Result) Skip(reason string) {
	r.Status = StatusSkip
	r.Reason = reason
}

// Abort marks the result as errored.
func (r *Result) Abort(reason string) {
	r.Status = StatusError
	r.Reason = reason
}

// Report is the outcome of a suite.
type Report struct {
	// Pass is true when no scenario failed or errored.
	Pass bool `json:"pass"`

	Results []*Result `json:"results"`
}

// Status summarizes the report as a single status: error wins over fail,
// fail over pass, and a suite where every scenario skipped is skipped.
func (r *Report) Status() Status {
	status := StatusSkip
	for _, res := range r.Results {
		switch res.Status {
		case StatusError:
			return StatusError
		case StatusFail:
			status = StatusFail
		case StatusPass:
			if status == StatusSkip {
				status = StatusPass
			}
		}
	}
	return status
}
