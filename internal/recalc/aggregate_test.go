package recalc

import (
	"testing"
	"time"
)

var base = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func TestThreadAggregates(t *testing.T) {
	threads := []threadRow{
		{ID: "th-1", CreatedAt: at(0)},
		{ID: "th-2", CreatedAt: at(5)},
	}
	posts := []postRow{
		{ThreadID: "th-1", CreatedAt: at(1)},
		{ThreadID: "th-1", CreatedAt: at(3)},
		{ThreadID: "orphan", CreatedAt: at(9)},
	}

	totals := threadAggregates(threads, posts)

	if got := totals["th-1"]; got.PostCount != 2 || !got.LastPostAt.Equal(at(3)) {
		t.Errorf("th-1 = %+v, want 2 posts with last activity at +3h", got)
	}
	if got := totals["th-2"]; got.PostCount != 0 || !got.LastPostAt.Equal(at(5)) {
		t.Errorf("th-2 = %+v, want creation time as last activity when postless", got)
	}
	if _, ok := totals["orphan"]; ok {
		t.Error("posts referencing unknown threads must not create totals")
	}
}

func TestCategoryAggregates_ChildrenRollUpIntoParents(t *testing.T) {
	parentID := "parent"
	categories := []categoryRow{
		{ID: "parent"},
		{ID: "child", ParentID: &parentID},
		{ID: "empty"},
	}
	threads := []threadRow{
		{ID: "th-p", CategoryID: "parent", CreatedAt: at(0)},
		{ID: "th-c1", CategoryID: "child", CreatedAt: at(0)},
		{ID: "th-c2", CategoryID: "child", CreatedAt: at(0)},
	}
	perThread := map[string]threadTotals{
		"th-p":  {PostCount: 1, LastPostAt: at(2)},
		"th-c1": {PostCount: 3, LastPostAt: at(8)},
		"th-c2": {PostCount: 2, LastPostAt: at(4)},
	}

	totals := categoryAggregates(categories, threads, perThread)

	child := totals["child"]
	if child.ThreadCount != 2 || child.PostCount != 5 || !child.LastPostAt.Equal(at(8)) {
		t.Errorf("child = %+v", child)
	}

	parent := totals["parent"]
	if parent.ThreadCount != 3 || parent.PostCount != 6 {
		t.Errorf("parent = %+v, want own totals plus child totals", parent)
	}
	if !parent.LastPostAt.Equal(at(8)) {
		t.Errorf("parent last activity = %v, want the child's newer stamp", parent.LastPostAt)
	}

	if empty := totals["empty"]; empty.ThreadCount != 0 || !empty.LastPostAt.IsZero() {
		t.Errorf("empty = %+v, want all-zero totals", empty)
	}
}

func TestUserAggregates(t *testing.T) {
	threads := []threadRow{
		{ID: "th-1", AuthorID: "alice", CreatedAt: at(0)},
		{ID: "th-2", AuthorID: "alice", CreatedAt: at(0)},
	}
	posts := []postRow{
		{ThreadID: "th-1", AuthorID: "alice", CreatedAt: at(1)},
		{ThreadID: "th-1", AuthorID: "bob", CreatedAt: at(2)},
		{ThreadID: "th-2", AuthorID: "bob", CreatedAt: at(3)},
	}

	totals := userAggregates(threads, posts)

	if got := totals["alice"]; got.ThreadCount != 2 || got.PostCount != 1 {
		t.Errorf("alice = %+v", got)
	}
	if got := totals["bob"]; got.ThreadCount != 0 || got.PostCount != 2 {
		t.Errorf("bob = %+v", got)
	}
}
