package consistency_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sonsunin65/portfolio-lugsana/pkg/consistency"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActivities(t *testing.T, f *fixture, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, f.insert(t, "activities", store.Row{"title": string(rune('A' + i)), "display_order": i + 1}).ID())
	}
	return ids
}

func readOrder(t *testing.T, f *fixture, collection, field string) []string {
	t.Helper()
	rows, err := f.table.Select(context.Background(), collection, store.Query{}.OrderedBy(field))
	require.NoError(t, err)
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID())
	}
	return ids
}

func callsOf(calls []memory.Call, op memory.Op) []memory.Call {
	var out []memory.Call
	for _, c := range calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []consistency.Strategy{consistency.FieldUpdate, consistency.Parallel, consistency.ReplaceAll} {
		got, err := consistency.ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := consistency.ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, consistency.FieldUpdate, got)

	_, err = consistency.ParseStrategy("shuffle")
	assert.Error(t, err)
}

func TestSyncOrder_FieldUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := seedActivities(t, f, 5)

	permutations := [][]string{
		{ids[4], ids[3], ids[2], ids[1], ids[0]},
		{ids[2], ids[0], ids[4], ids[1], ids[3]},
		ids,
	}
	for _, order := range permutations {
		report, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{Collection: "activities", IDs: order})
		require.NoError(t, err)
		assert.Equal(t, order, report.Updated)
		assert.Equal(t, order, readOrder(t, f, "activities", "display_order"))
	}

	rows, err := f.table.Select(ctx, "activities", store.Query{}.OrderedBy("display_order"))
	require.NoError(t, err)
	for i, r := range rows {
		assert.Equal(t, i+1, r["display_order"], "positions are 1-based and contiguous")
	}
}

func TestSyncOrder_IDsFromRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := seedActivities(t, f, 2)

	report, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{
		Collection: "activities",
		Rows:       []store.Row{{"id": ids[1]}, {"id": ids[0]}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{ids[1], ids[0]}, report.Updated)
	assert.Equal(t, []string{ids[1], ids[0]}, readOrder(t, f, "activities", "display_order"))
}

func TestSyncOrder_FieldUpdateAborts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := seedActivities(t, f, 5)
	f.table.ResetCalls()

	boom := errors.New("rls violation")
	f.table.FailWhen(func(op memory.Op, collection, id string) error {
		if op == memory.OpUpdate && id == ids[2] {
			return boom
		}
		return nil
	})

	report, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{Collection: "activities", IDs: ids})
	require.Error(t, err)

	var syncErr *consistency.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, ids[2:], syncErr.Remaining)
	assert.Equal(t, consistency.FieldUpdate, syncErr.Strategy)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ids[:2], report.Updated)
	assert.Len(t, callsOf(f.table.Calls(), memory.OpUpdate), 3, "no calls after the failure")

	outcome := report.Outcome(err)
	assert.Equal(t, consistency.StatusFailure, outcome.Status)
	assert.NotEmpty(t, outcome.Warnings)
}

func TestSyncOrder_ParallelCollectsFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := seedActivities(t, f, 6)
	f.table.ResetCalls()

	f.table.FailWhen(func(op memory.Op, collection, id string) error {
		if op == memory.OpUpdate && (id == ids[1] || id == ids[4]) {
			return errors.New("conflict " + id)
		}
		return nil
	})

	report, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{
		Collection: "activities",
		Strategy:   consistency.Parallel,
		IDs:        ids,
	})
	var syncErr *consistency.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, []string{ids[1], ids[4]}, syncErr.Remaining)
	require.Len(t, syncErr.Failed, 2)
	assert.Equal(t, ids[1], syncErr.Failed[0].ID)
	assert.Contains(t, err.Error(), "2 of the updates failed")

	assert.Len(t, callsOf(f.table.Calls(), memory.OpUpdate), 6, "every update attempted")
	assert.ElementsMatch(t, []string{ids[0], ids[2], ids[3], ids[5]}, report.Updated)
}

func TestSyncOrder_RejectsBadIDs(t *testing.T) {
	f := newFixture(t)
	_, err := f.sync.SyncOrder(context.Background(), consistency.OrderRequest{Collection: "activities", IDs: []string{"a", "b", "a"}})
	assert.ErrorIs(t, err, consistency.ErrDuplicateID)

	_, err = f.sync.SyncOrder(context.Background(), consistency.OrderRequest{Collection: "activities", IDs: []string{"a", ""}})
	assert.Error(t, err)

	_, err = f.sync.SyncOrder(context.Background(), consistency.OrderRequest{IDs: []string{"a"}})
	assert.Error(t, err)
	assert.Empty(t, f.table.Calls())
}

func TestSyncOrder_EmptyOrder(t *testing.T) {
	f := newFixture(t)
	report, err := f.sync.SyncOrder(context.Background(), consistency.OrderRequest{Collection: "activities"})
	require.NoError(t, err)
	assert.Empty(t, report.Updated)
	assert.Empty(t, f.table.Calls())
}

func statRows(labels ...string) []store.Row {
	rows := make([]store.Row, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, store.Row{"id": "old-" + l, "created_at": "yesterday", "label": l, "value": "1"})
	}
	return rows
}

func TestSyncOrder_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, r := range statRows("a", "b", "c") {
		f.insert(t, "stats", r)
	}
	f.table.ResetCalls()

	report, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{
		Collection: "stats",
		Strategy:   consistency.ReplaceAll,
		Rows:       statRows("c", "a"),
	})
	require.NoError(t, err)
	assert.False(t, report.Retried)
	require.Len(t, report.Inserted, 2)

	rows, err := f.table.Select(ctx, "stats", store.Query{}.OrderedBy("display_order"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for i, want := range []string{"c", "a"} {
		assert.Equal(t, want, rows[i]["label"])
		assert.Equal(t, i+1, rows[i]["display_order"])
		assert.NotContains(t, []string{"old-a", "old-b", "old-c"}, rows[i].ID(), "rows get fresh ids")
		assert.NotEqual(t, "yesterday", rows[i]["created_at"])
	}

	calls := f.table.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, memory.OpDeleteWhere, calls[0].Op)
	assert.Equal(t, memory.Call{Op: memory.OpInsert, Collection: "stats", Rows: 2}, calls[1])
}

func TestSyncOrder_ReplaceAllScoped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.insert(t, "pa_indicator_images", store.Row{"indicator_id": "i1", "image_url": "x"})
	f.insert(t, "pa_indicator_images", store.Row{"indicator_id": "i2", "image_url": "y"})

	_, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{
		Collection:    "pa_indicator_images",
		PositionField: "sort_order",
		Strategy:      consistency.ReplaceAll,
		Scope:         []store.Filter{store.Eq("indicator_id", "i1")},
		Rows:          []store.Row{{"image_url": "b"}, {"image_url": "a", "indicator_id": "i9"}},
	})
	require.NoError(t, err)

	rows, err := f.table.Select(ctx, "pa_indicator_images", store.Where(store.Eq("indicator_id", "i1")).OrderedBy("sort_order"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0]["image_url"])
	assert.Equal(t, "a", rows[1]["image_url"])
	assert.Equal(t, 1, rows[0]["sort_order"])

	other, err := f.table.Select(ctx, "pa_indicator_images", store.Where(store.Eq("indicator_id", "i2")))
	require.NoError(t, err)
	assert.Len(t, other, 1, "rows outside the scope are untouched")
}

func TestSyncOrder_ReplaceAllEmptyList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, r := range statRows("a", "b") {
		f.insert(t, "stats", r)
	}
	f.table.ResetCalls()

	_, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{Collection: "stats", Strategy: consistency.ReplaceAll})
	require.NoError(t, err)
	assert.Zero(t, f.table.Len("stats"))
	assert.Empty(t, callsOf(f.table.Calls(), memory.OpInsert), "no insert call for an empty list")
}

func TestSyncOrder_ReplaceAllRetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	attempts := 0
	f.table.FailWhen(func(op memory.Op, collection, id string) error {
		if op == memory.OpInsert {
			attempts++
			if attempts == 1 {
				return errors.New("connection reset")
			}
		}
		return nil
	})

	report, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{
		Collection: "stats",
		Strategy:   consistency.ReplaceAll,
		Rows:       statRows("a", "b"),
	})
	require.NoError(t, err)
	assert.True(t, report.Retried)
	assert.Equal(t, 2, f.table.Len("stats"))
}

func TestSyncOrder_ReplaceAllDataLoss(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, r := range statRows("a", "b") {
		f.insert(t, "stats", r)
	}
	f.table.ResetCalls()
	f.table.FailWhen(func(op memory.Op, collection, id string) error {
		if op == memory.OpInsert {
			return errors.New("disk full")
		}
		return nil
	})

	report, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{
		Collection: "stats",
		Strategy:   consistency.ReplaceAll,
		Rows:       statRows("b", "a"),
	})
	var syncErr *consistency.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.True(t, syncErr.DeleteSucceeded)
	assert.True(t, syncErr.DataLoss)
	assert.Zero(t, f.table.Len("stats"))
	assert.Len(t, callsOf(f.table.Calls(), memory.OpInsert), 2)

	outcome := report.Outcome(err)
	assert.Equal(t, consistency.StatusFailure, outcome.Status)
	require.NotEmpty(t, outcome.Warnings)
	assert.Contains(t, outcome.Warnings[0], "stats is now empty")
}

func TestSyncOrder_ReplaceAllDeleteFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, r := range statRows("a") {
		f.insert(t, "stats", r)
	}
	f.table.ResetCalls()
	f.table.FailWhen(func(op memory.Op, collection, id string) error {
		if op == memory.OpDeleteWhere {
			return errors.New("denied")
		}
		return nil
	})

	_, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{
		Collection: "stats",
		Strategy:   consistency.ReplaceAll,
		Rows:       statRows("a"),
	})
	var syncErr *consistency.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.False(t, syncErr.DeleteSucceeded)
	assert.False(t, syncErr.DataLoss)
	assert.Equal(t, 1, f.table.Len("stats"))
	assert.Empty(t, callsOf(f.table.Calls(), memory.OpInsert))
}

func TestSyncOrder_ReplaceAllNeedsRows(t *testing.T) {
	f := newFixture(t)
	_, err := f.sync.SyncOrder(context.Background(), consistency.OrderRequest{
		Collection: "stats",
		Strategy:   consistency.ReplaceAll,
		IDs:        []string{"a"},
	})
	assert.Error(t, err)
	assert.Empty(t, f.table.Calls())
}

func TestSyncOrder_ReplaceAllReleasesDroppedBlobs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	images := []consistency.FieldSpec{consistency.SingleField("image_url")}

	keep := f.blobs.Put("pa-images", "works/1.webp", []byte("1"))
	drop := f.blobs.Put("pa-images", "works/2.webp", []byte("2"))
	other := f.blobs.Put("pa-images", "works/3.webp", []byte("3"))
	first := f.insert(t, "highlights", store.Row{"owner": "a", "image_url": keep})
	f.insert(t, "highlights", store.Row{"owner": "a", "image_url": drop})
	f.insert(t, "highlights", store.Row{"owner": "b", "image_url": other})

	report, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{
		Collection: "highlights",
		Scope:      []store.Filter{store.Eq("owner", "a")},
		Strategy:   consistency.ReplaceAll,
		Rows:       []store.Row{first},
		BlobFields: images,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{drop}, report.Blobs.Removed)
	assert.Equal(t, []string{"pa-images/works/1.webp", "pa-images/works/3.webp"}, f.blobs.Keys())
	assert.Equal(t, consistency.StatusSuccess, report.Outcome(nil).Status)
}

func TestSyncOrder_ReplaceAllKeepsBlobsOnDataLoss(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	url := f.blobs.Put("pa-images", "works/1.webp", []byte("1"))
	f.insert(t, "highlights", store.Row{"image_url": url})
	f.table.FailWhen(func(op memory.Op, _, _ string) error {
		if op == memory.OpInsert {
			return errors.New("insert rejected")
		}
		return nil
	})

	_, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{
		Collection: "highlights",
		Strategy:   consistency.ReplaceAll,
		Rows:       []store.Row{{"image_url": url}},
		BlobFields: []consistency.FieldSpec{consistency.SingleField("image_url")},
	})
	var syncErr *consistency.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.True(t, syncErr.DataLoss)
	assert.Empty(t, f.blobs.Removed(), "files stay while the rows can still be restored")
}

func TestSyncOrder_ReplaceAllBlobFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	url := f.blobs.Put("pa-images", "works/1.webp", []byte("1"))
	f.insert(t, "highlights", store.Row{"image_url": url})
	f.blobs.FailRemoveWhen(func(_, _ string) error { return errors.New("network down") })

	report, err := f.sync.SyncOrder(ctx, consistency.OrderRequest{
		Collection: "highlights",
		Strategy:   consistency.ReplaceAll,
		BlobFields: []consistency.FieldSpec{consistency.SingleField("image_url")},
	})
	require.NoError(t, err)
	require.Len(t, report.Blobs.Failed, 1)
	outcome := report.Outcome(err)
	assert.Equal(t, consistency.StatusPartial, outcome.Status)
	assert.Contains(t, outcome.Warnings[0], "network down")
}
