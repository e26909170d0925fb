package violation

import (
	"encoding/json"
	"net/http"
)

// Problem is a validation problem document keyed by the offending fields
type Problem struct {
	Type       string              `json:"type"`
	Title      string              `json:"title"`
	Status     int                 `json:"status"`
	Constraint string              `json:"constraint,omitempty"`
	Errors     map[string][]string `json:"errors"`
}

// NewProblem maps every implicated field to the report's message
func NewProblem(v *Error) Problem {
	p := Problem{
		Type:   "https://tools.ietf.org/html/rfc7231#section-6.5.1",
		Title:  "One or more validation errors occurred.",
		Status: http.StatusBadRequest,
		Errors: map[string][]string{},
	}
	if v == nil {
		return p
	}
	p.Constraint = v.LogicalName
	for _, f := range v.Fields {
		p.Errors[f] = []string{v.Message}
	}
	return p
}

// MarshalProblem encodes the problem for err, if err carries a violation
func MarshalProblem(err error) ([]byte, bool, error) {
	v, ok := AsViolation(err)
	if !ok {
		return nil, false, nil
	}
	b, merr := json.MarshalIndent(NewProblem(v), "", "  ")
	return b, true, merr
}
