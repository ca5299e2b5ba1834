package recalc

import "time"

// Row snapshots read from the target store for the per-row fallback path.
// Only the columns the aggregation needs are carried.
type threadRow struct {
	ID         string
	CategoryID string
	AuthorID   string
	CreatedAt  time.Time
}

type postRow struct {
	ThreadID  string
	AuthorID  string
	CreatedAt time.Time
}

type categoryRow struct {
	ID       string
	ParentID *string
}

type threadTotals struct {
	PostCount  int
	LastPostAt time.Time
}

type categoryTotals struct {
	ThreadCount int
	PostCount   int
	LastPostAt  time.Time // zero when the category holds no threads
}

type userTotals struct {
	ThreadCount int
	PostCount   int
}

// threadAggregates computes per-thread post counts and last-activity stamps.
// A thread with no posts keeps its own creation time as last activity.
func threadAggregates(threads []threadRow, posts []postRow) map[string]threadTotals {
	totals := make(map[string]threadTotals, len(threads))
	for _, t := range threads {
		totals[t.ID] = threadTotals{LastPostAt: t.CreatedAt}
	}

	for _, p := range posts {
		agg, ok := totals[p.ThreadID]
		if !ok {
			continue
		}
		agg.PostCount++
		if p.CreatedAt.After(agg.LastPostAt) {
			agg.LastPostAt = p.CreatedAt
		}
		totals[p.ThreadID] = agg
	}

	return totals
}

// categoryAggregates rolls thread totals up into categories in two passes:
// direct counts for every category first, then each top-level category adds
// in its children's already-computed totals. The category tree is at most
// two levels deep, so one roll-up pass suffices.
func categoryAggregates(categories []categoryRow, threads []threadRow, perThread map[string]threadTotals) map[string]categoryTotals {
	totals := make(map[string]categoryTotals, len(categories))
	for _, c := range categories {
		totals[c.ID] = categoryTotals{}
	}

	for _, t := range threads {
		agg, ok := totals[t.CategoryID]
		if !ok {
			continue
		}
		tt := perThread[t.ID]
		agg.ThreadCount++
		agg.PostCount += tt.PostCount
		if tt.LastPostAt.After(agg.LastPostAt) {
			agg.LastPostAt = tt.LastPostAt
		}
		totals[t.CategoryID] = agg
	}

	for _, c := range categories {
		if c.ParentID == nil {
			continue
		}
		parent, ok := totals[*c.ParentID]
		if !ok {
			continue
		}
		child := totals[c.ID]
		parent.ThreadCount += child.ThreadCount
		parent.PostCount += child.PostCount
		if child.LastPostAt.After(parent.LastPostAt) {
			parent.LastPostAt = child.LastPostAt
		}
		totals[*c.ParentID] = parent
	}

	return totals
}

// userAggregates counts direct thread and post ownership per author.
func userAggregates(threads []threadRow, posts []postRow) map[string]userTotals {
	totals := map[string]userTotals{}

	for _, t := range threads {
		agg := totals[t.AuthorID]
		agg.ThreadCount++
		totals[t.AuthorID] = agg
	}
	for _, p := range posts {
		agg := totals[p.AuthorID]
		agg.PostCount++
		totals[p.AuthorID] = agg
	}

	return totals
}
