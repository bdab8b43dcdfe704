package plan

import (
	"fmt"
	"strconv"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"

	"github.com/flanksource/fixturekit/lifecycle"
)

// Status is the outcome of one test's fixture cycle.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

func (s Status) Pretty() api.Text {
	switch s {
	case StatusPassed:
		return clicky.Text("PASS", "text-green-500 font-bold")
	case StatusFailed:
		return clicky.Text("FAIL", "text-red-500 font-bold")
	}
	return clicky.Text(string(s), "text-gray-500")
}

// Result is the fixture-cycle outcome for one test.
type Result struct {
	Test     lifecycle.TestRef `json:"test"`
	Status   Status            `json:"status"`
	Fixtures int               `json:"fixtures"`
	Error    string            `json:"error,omitempty"`
}

func (r Result) Pretty() api.Text {
	text := r.Status.Pretty().Space().Add(r.Test.Pretty())
	text = text.Append(fmt.Sprintf(" (%d fixtures)", r.Fixtures), "text-gray-500")
	if r.Error != "" {
		text = text.Space().Append(r.Error, "text-red-600")
	}
	return text
}

func (r Result) String() string {
	return fmt.Sprintf("%s - %s", r.Test, r.Status)
}

// Stats summarizes a plan run.
type Stats struct {
	Total  int `json:"total,omitempty"`
	Passed int `json:"passed,omitempty"`
	Failed int `json:"failed,omitempty"`
}

func (s Stats) Add(result Result) Stats {
	s.Total++
	switch result.Status {
	case StatusPassed:
		s.Passed++
	case StatusFailed:
		s.Failed++
	}
	return s
}

func (s Stats) Merge(o Stats) Stats {
	return Stats{
		Total:  s.Total + o.Total,
		Passed: s.Passed + o.Passed,
		Failed: s.Failed + o.Failed,
	}
}

func (s Stats) HasFailures() bool {
	return s.Failed > 0
}

func (s Stats) Pretty() api.Text {
	t := api.Text{}
	if s.Passed > 0 {
		t = t.Append(strconv.Itoa(s.Passed), "text-green-500")
	}
	if s.Failed > 0 {
		if !t.IsEmpty() {
			t = t.Append("/", "text-gray-500")
		}
		t = t.Append(strconv.Itoa(s.Failed), "text-red-500")
	}
	return t
}

func (s Stats) String() string {
	if s.Total == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", s.Passed, s.Total)
}

// Report aggregates all test results of a run.
type Report struct {
	Results []Result `json:"results"`
	Stats   Stats    `json:"stats"`
}

func (r *Report) Add(result Result) {
	r.Results = append(r.Results, result)
	r.Stats = r.Stats.Add(result)
}

func (r Report) Pretty() api.Text {
	text := clicky.Text("Fixture plan: ", "font-bold").Add(r.Stats.Pretty())
	for _, result := range r.Results {
		text = text.NewLine().Add(result.Pretty())
	}
	return text
}
