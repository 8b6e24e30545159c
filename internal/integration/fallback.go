package integration

import "github.com/zulandar/switchyard/internal/workflow"

// fallbackOrder lists, per local category, the external state types a
// column of that category may bind to, most preferred first.
var fallbackOrder = map[workflow.Category][]workflow.Category{
	workflow.CategoryTriage:    {workflow.CategoryTriage, workflow.CategoryUnstarted, workflow.CategoryBacklog},
	workflow.CategoryBacklog:   {workflow.CategoryBacklog, workflow.CategoryUnstarted, workflow.CategoryTriage},
	workflow.CategoryUnstarted: {workflow.CategoryUnstarted, workflow.CategoryBacklog, workflow.CategoryTriage},
	workflow.CategoryStarted:   {workflow.CategoryStarted, workflow.CategoryUnstarted},
	workflow.CategoryCompleted: {workflow.CategoryCompleted},
	workflow.CategoryCanceled:  {workflow.CategoryCanceled},
}

// AcceptableTypes returns the external state types a local category accepts,
// in priority order. Unknown categories accept nothing.
func AcceptableTypes(c workflow.Category) []workflow.Category {
	order := fallbackOrder[c]
	out := make([]workflow.Category, len(order))
	copy(out, order)
	return out
}

func accepts(c workflow.Category, stateType string) bool {
	for _, t := range fallbackOrder[c] {
		if string(t) == stateType {
			return true
		}
	}
	return false
}
