// Package rubric defines the named, weighted scoring criteria used to
// instruct and parse judge output. A rubric carries no scoring logic,
// only weights and rendered natural-language instructions.
package rubric

import (
	"fmt"
	"strings"
)

// Criterion is one named scoring dimension with a positive integer weight.
type Criterion struct {
	Name   string `json:"name" yaml:"name"`
	Weight int    `json:"weight" yaml:"weight"`
}

// Rubric is an ordered set of criteria. Order matters: instructions are
// rendered and totals are reported in declaration order.
type Rubric struct {
	Name     string      `json:"name" yaml:"name"`
	Criteria []Criterion `json:"criteria" yaml:"criteria"`
}

// Default returns the general reasoning rubric. Maximum attainable total
// is 10 * (3+2+2+1+1) = 90.
func Default() Rubric {
	return Rubric{
		Name: "GeneralReasoningV1",
		Criteria: []Criterion{
			{Name: "soundness", Weight: 3},
			{Name: "evidence", Weight: 2},
			{Name: "constraints", Weight: 2},
			{Name: "safety", Weight: 1},
			{Name: "clarity", Weight: 1},
		},
	}
}

// Weight returns the weight of the named criterion, or 0 when the rubric
// does not declare it.
func (r Rubric) Weight(name string) int {
	for _, c := range r.Criteria {
		if c.Name == name {
			return c.Weight
		}
	}
	return 0
}

// Instructions renders the judging instructions handed to a model judge:
// score each submission 0-10 per criterion, multiply by weight, sum to total.
func (r Rubric) Instructions() string {
	lines := make([]string, 0, len(r.Criteria))
	for _, c := range r.Criteria {
		lines = append(lines, fmt.Sprintf("- %s: weight %d", c.Name, c.Weight))
	}
	return fmt.Sprintf("You are a judge. Score each submission 0-10 per criterion, multiply by weight, sum to total. Criteria:\n%s\nRespond as JSON with per-criterion scores and brief justifications, plus a one-sentence verdict.",
		strings.Join(lines, "\n"))
}
