package checks

import (
	"fmt"
	"sort"

	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
)

// Scenario is a named, ordered check list.
type Scenario struct {
	Name    string
	Summary string
	// Describe returns the "Testing: ..." heading for a run.
	Describe func(env *Env) string
	Build    func(env *Env) []runner.Check
}

// Suite builds the runnable suite for env.
func (s Scenario) Suite(env *Env) *runner.Suite {
	return &runner.Suite{
		Name:        s.Name,
		Description: s.Describe(env),
		Checks:      s.Build(env),
	}
}

var registry = map[string]Scenario{}

// DefaultNames are the scenarios run when none is named. The at-head
// scenario contradicts secondary-main whenever main has advanced, so it only
// runs on request.
var DefaultNames = []string{"secondary-main", "feature-branch"}

func register(s Scenario) {
	if _, exists := registry[s.Name]; exists {
		panic(fmt.Sprintf("checks: scenario %q registered twice", s.Name))
	}
	registry[s.Name] = s
}

func init() {
	register(secondaryMainScenario)
	register(featureBranchScenario)
	register(atHeadScenario)
}

// Scenarios returns every registered scenario sorted by name.
func Scenarios() []Scenario {
	list := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Names returns the registered scenario names in sorted order.
func Names() []string {
	var names []string
	for _, s := range Scenarios() {
		names = append(names, s.Name)
	}
	return names
}

func Get(name string) (Scenario, error) {
	s, ok := registry[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q (available: %v)", name, Names())
	}
	return s, nil
}
