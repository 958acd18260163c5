package harness

import (
	"encoding/json"
	"time"
)

// Result is the recorded outcome of one check.
type Result struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Critical bool          `json:"critical"`
	Message  string        `json:"message,omitempty"`
	Code     string        `json:"error_code,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Results is an insertion-ordered collection of results keyed by check name.
type Results struct {
	order  []string
	byName map[string]Result
}

// NewResults creates an empty collection.
func NewResults() *Results {
	return &Results{byName: make(map[string]Result)}
}

// Add records res. Adding a name twice replaces the result in place.
func (r *Results) Add(res Result) {
	if _, ok := r.byName[res.Name]; !ok {
		r.order = append(r.order, res.Name)
	}
	r.byName[res.Name] = res
}

// Get returns the result for name.
func (r *Results) Get(name string) (Result, bool) {
	res, ok := r.byName[name]
	return res, ok
}

// Passed reports whether name ran and passed. Unknown names did not pass.
func (r *Results) Passed(name string) bool {
	return r.byName[name].Passed
}

// Names returns check names in insertion order.
func (r *Results) Names() []string {
	return append([]string(nil), r.order...)
}

// All returns results in insertion order.
func (r *Results) All() []Result {
	all := make([]Result, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.byName[name])
	}
	return all
}

func (r *Results) Count() int { return len(r.order) }

func (r *Results) PassedCount() int {
	n := 0
	for _, res := range r.byName {
		if res.Passed {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the results as an ordered array.
func (r *Results) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.All())
}

// UnmarshalJSON decodes an array written by MarshalJSON.
func (r *Results) UnmarshalJSON(b []byte) error {
	var all []Result
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	*r = *NewResults()
	for _, res := range all {
		r.Add(res)
	}
	return nil
}
