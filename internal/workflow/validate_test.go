package workflow

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(id string, cat Category, pos int) Column {
	return Column{ID: id, Label: id, Color: "blue", Position: pos, Category: cat}
}

func TestValidateColumns_CanonicalOrder(t *testing.T) {
	input := []Column{
		col("blocked", CategoryStarted, 2),
		col("queue", CategoryUnstarted, 0),
		col("closed", CategoryCompleted, 4),
		col("wontfix", CategoryCanceled, 5),
	}

	got, err := ValidateColumns(input)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
		assert.Equal(t, i, c.Position, "position of %s", c.ID)
	}
	assert.Equal(t, []string{"queue", "blocked", "closed", "wontfix"}, ids)
}

func TestValidateColumns_DoesNotMutateInput(t *testing.T) {
	input := []Column{
		{ID: "  b ", Label: " B ", Color: " red ", Position: 9, Category: CategoryStarted},
		col("a", CategoryUnstarted, 3),
		col("z", CategoryCompleted, 1),
	}
	before := make([]Column, len(input))
	copy(before, input)

	got, err := ValidateColumns(input)
	require.NoError(t, err)
	assert.Equal(t, before, input)
	assert.Equal(t, Column{ID: "b", Label: "B", Color: "red", Position: 1, Category: CategoryStarted}, got[1])
}

func TestValidateColumns_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input []Column
		kind  ErrorKind
		field string
		msg   string
	}{
		{
			name:  "empty set",
			input: nil,
			kind:  EmptyColumnSet,
			msg:   "must have at least one column",
		},
		{
			name:  "blank id",
			input: []Column{col("  ", CategoryUnstarted, 0), col("done", CategoryCompleted, 1)},
			kind:  MissingField,
			field: "id",
		},
		{
			name: "blank label",
			input: []Column{
				{ID: "todo", Label: "", Color: "blue", Category: CategoryUnstarted},
				col("done", CategoryCompleted, 1),
			},
			kind:  MissingField,
			field: "label",
			msg:   `column "todo" must have a non-empty label`,
		},
		{
			name: "blank color",
			input: []Column{
				{ID: "todo", Label: "To Do", Color: " ", Category: CategoryUnstarted},
				col("done", CategoryCompleted, 1),
			},
			kind:  MissingField,
			field: "color",
		},
		{
			name:  "unknown category",
			input: []Column{col("todo", "someday", 0), col("done", CategoryCompleted, 1)},
			kind:  InvalidCategory,
			msg:   `column "todo" has invalid category "someday"`,
		},
		{
			name: "duplicate id after trim",
			input: []Column{
				col("todo", CategoryUnstarted, 0),
				col(" todo", CategoryStarted, 1),
				col("done", CategoryCompleted, 2),
			},
			kind: DuplicateID,
		},
		{
			name:  "no completed column",
			input: []Column{col("todo", CategoryUnstarted, 0), col("dropped", CategoryCanceled, 1)},
			kind:  NoCompletedColumn,
			msg:   "must have at least one completed column",
		},
		{
			name:  "only terminal columns",
			input: []Column{col("done", CategoryCompleted, 0), col("dropped", CategoryCanceled, 1)},
			kind:  NoNonTerminalColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateColumns(tt.input)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrInvalidColumns))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.kind, verr.Kind)
			if tt.field != "" {
				assert.Equal(t, tt.field, verr.Field)
			}
			if tt.msg != "" {
				assert.Equal(t, tt.msg, err.Error())
			}
		})
	}
}

func TestValidateColumns_Idempotent(t *testing.T) {
	inputs := [][]Column{
		DefaultColumns(),
		{col("b", CategoryStarted, -4), col("a", CategoryStarted, -4), col("x", CategoryCompleted, 100)},
		{col("ship", CategoryCompleted, 0), col("idea", CategoryTriage, 7), col("build", CategoryStarted, 7)},
	}
	for _, in := range inputs {
		once, err := ValidateColumns(in)
		require.NoError(t, err)
		twice, err := ValidateColumns(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestValidateColumns_PermutationInvariant(t *testing.T) {
	base := []Column{
		col("inbox", CategoryTriage, 3),
		col("ready", CategoryUnstarted, 1),
		col("doing", CategoryStarted, 1),
		col("review", CategoryStarted, 1),
		col("qa", CategoryStarted, 0),
		col("shipped", CategoryCompleted, 2),
		col("dropped", CategoryCanceled, 2),
	}
	want, err := ValidateColumns(base)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		perm := make([]Column, len(base))
		copy(perm, base)
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })

		got, err := ValidateColumns(perm)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestValidateColumns_PositionsRenumbered(t *testing.T) {
	input := []Column{
		col("a", CategoryUnstarted, -10),
		col("b", CategoryUnstarted, -10),
		col("c", CategoryStarted, 500),
		col("d", CategoryCompleted, 3),
		col("e", CategoryCompleted, 3),
	}
	got, err := ValidateColumns(input)
	require.NoError(t, err)
	require.Len(t, got, len(input))
	for i, c := range got {
		assert.Equal(t, i, c.Position)
	}
}

func TestValidateColumns_OutputKeepsInvariants(t *testing.T) {
	got, err := ValidateColumns(DefaultColumns())
	require.NoError(t, err)

	var completed, alive int
	for _, c := range got {
		if c.Category.IsDone() {
			completed++
		}
		if !c.Category.IsTerminal() {
			alive++
		}
	}
	assert.Equal(t, 7, len(got))
	assert.Positive(t, completed)
	assert.Positive(t, alive)
}
