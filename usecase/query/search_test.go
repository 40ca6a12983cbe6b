package query

import (
	"testing"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/internal/testutil"
)

func TestSearch(t *testing.T) {
	cards := []domain.Card{
		testutil.NewCard("t").WithTitle("Fix login BUG").Build(),
		testutil.NewCard("d").WithTitle("Other").WithDescription("touches the bug tracker").Build(),
		testutil.NewCard("l").WithTitle("Third").WithLabels("Bugfix").Build(),
		testutil.NewCard("n").WithTitle("Unrelated").Build(),
	}
	equalIDs(t, Search(cards, "  bug "), "t", "d", "l")
	equalIDs(t, Search(cards, ""), "t", "d", "l", "n")
	equalIDs(t, Search(cards, "missing"))
}

func TestFilterBoard(t *testing.T) {
	now := testutil.Epoch
	b := testutil.NewBoard("b1").
		WithColumn("todo", "To Do", domain.RoleTodo,
			testutil.NewCard("k1").WithTitle("Write docs").WithAssignee("1").Build(),
			testutil.NewCard("k2").WithTitle("Write tests").WithAssignee("2").Build(),
			testutil.NewCard("k3").WithTitle("Write code").WithAssignee("1").Archived(now).Build()).
		WithColumn("done", "Done", domain.RoleDone,
			testutil.NewCard("k4").WithTitle("Read docs").WithAssignee("1").Build()).
		Build()

	got := FilterBoard(b, "write", Filters{AssigneeIDs: []string{"1"}}, now)
	equalIDs(t, got.Columns[0].Cards, "k1")
	equalIDs(t, got.Columns[1].Cards)
	if len(b.Columns[0].Cards) != 3 {
		t.Fatal("source board must be untouched")
	}
}
