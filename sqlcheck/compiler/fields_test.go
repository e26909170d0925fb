package compiler

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlcheck/sqlcheck/sqlcheck/expr"
)

func TestFields(t *testing.T) {
	shape := expr.MustShapeOf[Person]()
	env := expr.Env{
		"limits": limits{Max: 10},
		"re":     regexp.MustCompile(`^a`),
	}

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"single", `x => x.Age > 0`, []string{"Age"}},
		{"duplicate", `x => x.Age + x.Age == 0`, []string{"Age"}},
		{"first occurrence order", `x => x.Name != "" && x.Age > 0 && x.Name.Length < 10`, []string{"Name", "Age"}},
		{"nested member", `x => x.Nick.Length > 2`, []string{"Nick"}},
		{"captured ignored", `x => x.Age < limits.Max`, []string{"Age"}},
		{"call receiver", `x => re.MatchString(x.Email)`, []string{"Email"}},
		{"static call", `x => Regex.IsMatch(x.First + x.Last, "x")`, []string{"First", "Last"}},
		{"conditional", `x => x.Age > 10 ? x.Score > 1 : x.Balance > 0`, []string{"Age", "Score", "Balance"}},
		{"conversion", `x => int(x.Score) > 1`, []string{"Score"}},
		{"constant only", `x => limits.Max > 1`, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Fields(expr.MustParse(tc.src, shape, env))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFieldsNil(t *testing.T) {
	assert.Nil(t, Fields(nil))
}
