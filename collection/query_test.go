package collection

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/treeman/field"
	"github.com/hupe1980/treeman/index"
	"github.com/hupe1980/treeman/internal/resource"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID       int
	Customer string
	Status   string
	Amount   decimal.Decimal
	Weight   float64
	Note     string
	Priority bool
}

func orders(n int) []order {
	statuses := []string{"open", "paid", "shipped", "cancelled"}
	out := make([]order, n)
	for i := range out {
		out[i] = order{
			ID:       i,
			Customer: fmt.Sprintf("c%03d", i%50),
			Status:   statuses[i%len(statuses)],
			Amount:   decimal.NewFromInt(int64(i % 300)),
			Weight:   float64(i%40) / 2,
			Note:     []string{"payment failed error", "payment success", "transaction failed"}[i%3],
			Priority: i%10 == 0,
		}
	}
	return out
}

func ids(items []*order) []int {
	out := make([]int, len(items))
	for i, o := range items {
		out[i] = o.ID
	}
	return out
}

func scan(items []*order, pred func(*order) bool) []int {
	out := []int{}
	for i, o := range items {
		if pred(o) {
			out = append(out, i)
		}
	}
	return out
}

var (
	byID       = field.Extract(func(o *order) int { return o.ID })
	byStatus   = field.Extract(func(o *order) string { return o.Status })
	byCustomer = field.Extract(func(o *order) string { return o.Customer })
)

func TestFieldIndexMatchesScan(t *testing.T) {
	for _, minRows := range []int{0, 1_000_000} {
		t.Run(fmt.Sprintf("planner_min_rows_%d", minRows), func(t *testing.T) {
			c := FromRecords(orders(2000), WithConfig(Config{PlannerMinRows: minRows}))
			require.NoError(t, c.CreateFieldIndex("id", byID))
			require.NoError(t, c.CreateFieldIndex("status", byStatus))

			got, err := c.GetIndicesByField("id", field.Where(field.Eq(field.U16(42))).Steps())
			require.NoError(t, err)
			assert.Equal(t, []int{42}, got)

			got, err = c.GetIndicesByField("id", field.Where(field.Gte(field.Int(1990))).Or(field.Lt(field.Int(2))).Steps())
			require.NoError(t, err)
			assert.Equal(t, []int{0, 1, 1990, 1991, 1992, 1993, 1994, 1995, 1996, 1997, 1998, 1999}, got)

			require.NoError(t, c.FilterByField("status", field.Where(field.In(field.String("paid"), field.String("open"))).Steps()))
			assert.Equal(t, 1000, c.Len())

			require.NoError(t, c.FilterByField("id", field.Where(field.Range(field.Int(100), field.Int(110))).Steps()))
			assert.Equal(t, []int{100, 101, 104, 105, 108, 109}, ids(c.Items()))
			assert.Equal(t, 3, c.StoredLevelsCount())
		})
	}
}

func TestIndexConsistentAfterFilter(t *testing.T) {
	c := FromRecords(orders(3000))
	require.NoError(t, c.CreateFieldIndex("customer", byCustomer))
	require.NoError(t, c.CreateBitIndex("priority", func(o *order) bool { return o.Priority }))
	require.NoError(t, c.CreateTextIndex("note", func(o *order) string { return o.Note }))

	require.NoError(t, c.Filter(func(o *order) bool { return o.ID%7 != 0 }))
	require.NoError(t, c.ValidateIndexes())

	items := c.Items()
	got, err := c.GetIndicesByField("customer", field.Where(field.Eq(field.String("c007"))).Steps())
	require.NoError(t, err)
	assert.Equal(t, scan(items, func(o *order) bool { return o.Customer == "c007" }), got)

	got, err = c.GetIndicesByBit("priority")
	require.NoError(t, err)
	assert.Equal(t, scan(items, func(o *order) bool { return o.Priority }), got)

	got, err = c.SearchWithText("note", "SUCCESS")
	require.NoError(t, err)
	assert.Equal(t, scan(items, func(o *order) bool { return o.Note == "payment success" }), got)

	for _, info := range c.ListIndexes() {
		assert.False(t, info.Stale, info.Name)
		assert.Equal(t, len(items), info.Records, info.Name)
	}
}

func TestFilterByFieldEmptyResult(t *testing.T) {
	c := FromRecords(orders(10))
	require.NoError(t, c.CreateFieldIndex("status", byStatus))

	require.NoError(t, c.FilterByField("status", field.Where(field.Eq(field.String("lost"))).Steps()))
	assert.Zero(t, c.Len())
	assert.Equal(t, 2, c.StoredLevelsCount())

	name, err := c.LevelName(1)
	require.NoError(t, err)
	assert.Equal(t, `status: = "lost"`, name)
}

func TestFieldQueryErrors(t *testing.T) {
	for _, minRows := range []int{0, 1_000_000} {
		c := FromRecords(orders(100), WithConfig(Config{PlannerMinRows: minRows}))
		require.NoError(t, c.CreateFieldIndex("status", byStatus))

		err := c.FilterByField("status", field.Where(field.Eq(field.Int(42))).Steps())
		var convErr *field.ConvertError
		require.ErrorAs(t, err, &convErr)
		assert.Equal(t, 1, c.StoredLevelsCount())

		err = c.FilterByField("status", nil)
		require.ErrorIs(t, err, ErrEmptyOperations)
		require.ErrorIs(t, c.FilterByFields(nil), ErrEmptyOperations)

		_, err = c.GetIndicesByFields([]FieldQuery{
			{Name: "a", Steps: field.Where(field.Eq(field.Int(1))).Steps()},
			{Name: "status", Steps: field.Where(field.Eq(field.String("open"))).Steps()},
			{Name: "b", Steps: field.Where(field.Eq(field.Int(1))).Steps()},
		})
		var nf *index.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, []string{"a", "b"}, nf.Names)
	}
}

func TestFieldQueryErrorsOnEveryPlan(t *testing.T) {
	plans := map[string]Config{
		"index": {PlannerMinRows: 0, PlannerMaxSelectivity: 1},
		"scan":  {PlannerMinRows: 1_000_000},
	}
	for plan, cfg := range plans {
		c := FromRecords(orders(10), WithConfig(cfg))
		require.NoError(t, c.CreateFieldIndex("status", byStatus))
		require.NoError(t, c.CreateBucketedIndex("amount", func(o *order) decimal.Decimal { return o.Amount }, decimal.NewFromInt(100)))

		_, err := c.GetIndicesByFields([]FieldQuery{
			{Name: "status", Steps: field.Where(field.Eq(field.String("open"))).Steps()},
			{Name: "amount", Steps: field.Where(field.Gte(field.String("x"))).Steps()},
		})
		var convErr *field.ConvertError
		require.ErrorAs(t, err, &convErr, plan)

		_, err = c.GetIndicesByFields([]FieldQuery{
			{Name: "status", Steps: field.Where(field.Eq(field.String("open"))).Steps()},
			{Name: "amount", Steps: field.Where(field.In(field.Int(1))).Steps()},
		})
		var opErr *field.OperationError
		require.ErrorAs(t, err, &opErr, plan)

		err = c.FilterByField("status", field.Where(field.Eq(field.String("lost"))).And(field.Eq(field.Int(42))).Steps())
		require.ErrorAs(t, err, &convErr, plan)
		assert.Equal(t, 1, c.StoredLevelsCount())
	}
}

func TestFilterByFields(t *testing.T) {
	c := FromRecords(orders(400))
	require.NoError(t, c.CreateFieldIndex("status", byStatus))
	require.NoError(t, c.CreateFieldIndex("customer", byCustomer))

	require.NoError(t, c.FilterByFields([]FieldQuery{
		{Name: "status", Steps: field.Where(field.Eq(field.String("open"))).Steps()},
		{Name: "customer", Steps: field.Where(field.Eq(field.String("c000"))).Steps()},
	}))
	// IDs divisible by both 4 and 50.
	assert.Equal(t, []int{0, 100, 200, 300}, ids(c.Items()))
	name, err := c.LevelName(1)
	require.NoError(t, err)
	assert.Equal(t, `status: = "open" AND customer: = "c000"`, name)
}

func TestIndexKindCompatibility(t *testing.T) {
	c := FromRecords(orders(10))
	require.NoError(t, c.CreateBitIndex("flag", func(o *order) bool { return o.Priority }))

	err := c.CreateFieldIndex("flag", byID)
	var compat *index.CompatibilityError
	require.ErrorAs(t, err, &compat)
	assert.Equal(t, "bit", compat.Existing)
	assert.Equal(t, "field", compat.Requested)

	_, err = c.GetIndicesByField("flag", field.Where(field.Eq(field.Int(1))).Steps())
	require.ErrorIs(t, err, index.ErrKindMismatch)

	kind, err := c.IndexKind("flag")
	require.NoError(t, err)
	assert.Equal(t, index.KindBit, kind)

	// Same kind replaces.
	require.NoError(t, c.CreateBitIndex("flag", func(o *order) bool { return o.ID < 3 }))
	got, err := c.GetIndicesByBit("flag")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)

	assert.True(t, c.DropIndex("flag"))
	assert.False(t, c.DropIndex("flag"))
	_, err = c.IndexKind("flag")
	var nf *index.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestFieldIndexMixedKinds(t *testing.T) {
	c := FromRecords(orders(4))
	err := c.CreateFieldIndex("mixed", func(o *order) field.Value {
		if o.ID%2 == 0 {
			return field.Int(o.ID)
		}
		return field.String(o.Status)
	})
	var be *index.BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "mixed", be.Name)
	require.ErrorIs(t, err, index.ErrMixedKinds)
	assert.False(t, c.HasIndex("mixed"))
}

func TestBucketedRangeScenario(t *testing.T) {
	prices := []string{"99.99", "100", "175.5", "250", "251", "300"}
	records := make([]order, len(prices))
	for i, p := range prices {
		records[i] = order{ID: i, Amount: decimal.RequireFromString(p)}
	}
	c := FromRecords(records)
	require.NoError(t, c.CreateBucketedIndex("amount", func(o *order) decimal.Decimal { return o.Amount }, decimal.NewFromInt(100)))

	got, err := c.GetIndicesByRange("amount", index.Closed(field.Int(100), field.Int(250)))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	require.NoError(t, c.FilterByRange("amount", index.Closed(field.Int(100), field.Int(250))))
	assert.Equal(t, []int{1, 2, 3}, ids(c.Items()))

	// Rebuilt for the new level.
	got, err = c.GetIndicesByField("amount", field.Where(field.Gt(field.Int(200))).Steps())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, got)

	err = c.CreateBucketedIndex("bad", func(o *order) decimal.Decimal { return o.Amount }, decimal.Zero)
	require.ErrorIs(t, err, index.ErrInvalidBucketSize)
}

func TestBucketedFloatIndex(t *testing.T) {
	c := FromRecords(orders(80))
	require.NoError(t, c.CreateBucketedFloatIndex("weight", func(o *order) float64 { return o.Weight }, 5))

	got, err := c.GetIndicesByRange("weight", index.Interval{Low: index.Included(field.F64(19)), High: index.Unbounded()})
	require.NoError(t, err)
	// Weight 19 and 19.5 occur at ID%40 of 38 and 39.
	assert.Equal(t, []int{38, 39, 78, 79}, got)
}

func TestBitOperation(t *testing.T) {
	c := FromRecords(orders(40))
	require.NoError(t, c.CreateBitIndex("priority", func(o *order) bool { return o.Priority }))
	require.NoError(t, c.CreateBitIndex("paid", func(o *order) bool { return o.Status == "paid" }))
	require.NoError(t, c.CreateBitIndex("low", func(o *order) bool { return o.ID < 5 }))

	got, err := c.BitOperation([]BitQuery{{Name: "priority"}, {Name: "low", Op: index.BitOr}, {Name: "paid", Op: index.BitAndNot}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3, 4, 10, 20, 30}, got)

	require.NoError(t, c.FilterByBitOperation([]BitQuery{{Name: "priority"}, {Name: "low", Op: index.BitAnd}}))
	assert.Equal(t, []int{0}, ids(c.Items()))
	name, err := c.LevelName(1)
	require.NoError(t, err)
	assert.Equal(t, "priority AND low", name)

	_, err = c.BitOperation(nil)
	require.ErrorIs(t, err, ErrEmptyOperations)
}

func TestTextQueries(t *testing.T) {
	c := FromRecords(orders(3))
	require.NoError(t, c.CreateTextIndex("note", func(o *order) string { return o.Note }))

	got, err := c.SearchComplexWords("note", []string{"payment", "transaction"}, []string{"failed"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, got)

	stats, err := c.TextStats("note")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Records)

	top, err := c.TopNGrams("note", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].Count)

	require.NoError(t, c.FilterByComplexWords("note", []string{"payment"}, nil, []string{"error"}))
	assert.Equal(t, []int{1}, ids(c.Items()))
	name, err := c.LevelName(1)
	require.NoError(t, err)
	assert.Equal(t, "note: payment AND NOT error", name)

	require.NoError(t, c.Up())
	require.NoError(t, c.CreateTextIndex("note", func(o *order) string { return o.Note }))
	require.NoError(t, c.FilterByText("note", "fail"))
	assert.Equal(t, []int{0, 2}, ids(c.Items()))
}

func TestFieldQuality(t *testing.T) {
	c := FromRecords(orders(1000))
	require.NoError(t, c.CreateFieldIndex("id", byID))
	require.NoError(t, c.CreateFieldIndex("status", byStatus))

	q, err := c.FieldQuality("id")
	require.NoError(t, err)
	assert.Equal(t, index.GradeExcellent, q.Grade)

	q, err = c.FieldQuality("status")
	require.NoError(t, err)
	assert.Equal(t, index.GradeBad, q.Grade)
}

func TestIndexMemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1})
	c := FromRecords(orders(100), WithResourceController(rc))

	err := c.CreateFieldIndex("id", byID)
	require.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.False(t, c.HasIndex("id"))
	assert.Zero(t, rc.MemoryUsage())
}

func TestIndexMemoryAccounting(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	c := FromRecords(orders(100), WithResourceController(rc))

	require.NoError(t, c.CreateFieldIndex("id", byID))
	assert.Positive(t, rc.MemoryUsage())

	require.NoError(t, c.Filter(func(o *order) bool { return o.ID < 10 }))
	assert.Equal(t, c.MemoryStats().IndexBytes, rc.MemoryUsage())

	c.ClearAllIndexes()
	assert.Zero(t, rc.MemoryUsage())
}

type countingObserver struct {
	NoopMetricsObserver
	filters atomic.Int64
	builds  atomic.Int64
	queries atomic.Int64
}

func (o *countingObserver) OnFilter(time.Duration, int, int, int, error) { o.filters.Add(1) }
func (o *countingObserver) OnIndexBuild(time.Duration, string, error)    { o.builds.Add(1) }
func (o *countingObserver) OnQuery(time.Duration, string, int, error)    { o.queries.Add(1) }

func TestMetricsObserver(t *testing.T) {
	obs := &countingObserver{}
	c := FromRecords(orders(10), WithMetricsObserver(obs))

	require.NoError(t, c.CreateBitIndex("p", func(o *order) bool { return o.Priority }))
	require.NoError(t, c.Filter(func(o *order) bool { return o.ID > 2 }))
	_, err := c.GetIndicesByBit("p")
	require.NoError(t, err)

	assert.Equal(t, int64(1), obs.filters.Load())
	// Initial build plus the rebuild after the filter.
	assert.Equal(t, int64(2), obs.builds.Load())
	assert.Equal(t, int64(1), obs.queries.Load())
}

func TestRebuildDeferredWhileSlotsBusy(t *testing.T) {
	rc := resource.NewController(resource.Config{MaxRebuilds: 1})
	obs := &countingObserver{}
	c := FromRecords(orders(100), WithResourceController(rc), WithMetricsObserver(obs))
	require.NoError(t, c.CreateBitIndex("p", func(o *order) bool { return o.Priority }))

	require.NoError(t, rc.AcquireRebuild(t.Context()))
	require.NoError(t, c.Filter(func(o *order) bool { return o.ID >= 50 }))
	assert.Equal(t, int64(1), obs.builds.Load())
	require.Len(t, c.ListIndexes(), 1)
	assert.True(t, c.ListIndexes()[0].Stale)
	rc.ReleaseRebuild()

	got, err := c.GetIndicesByBit("p")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 10, 20, 30, 40}, got)
	assert.Equal(t, int64(2), obs.builds.Load())
	assert.False(t, c.ListIndexes()[0].Stale)
}

func TestFilterByBitMaterializesSelection(t *testing.T) {
	parent := FromRecords(orders(4000), WithConfig(Config{GatherThreshold: 10, MaxWorkers: 4}))
	require.NoError(t, parent.CreateBitIndex("even", func(o *order) bool { return o.ID%2 == 0 }))
	require.NoError(t, parent.FilterByBit("even"))
	require.Equal(t, 2000, parent.Len())
	assert.Equal(t, scan(parent.Items(), func(o *order) bool { return o.ID%2 == 0 }), indexRange(2000))
	assert.Equal(t, 3998, parent.Items()[1999].ID)

	child, err := FromParentPositions(parent, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	require.NoError(t, err)
	require.NoError(t, child.CreateBitIndex("priority", func(o *order) bool { return o.Priority }))
	require.NoError(t, child.FilterByBit("priority"))
	assert.Equal(t, []int{0, 10}, ids(child.Items()))
	require.NoError(t, child.ResetToSource())
	assert.Equal(t, 11, child.Len())
}

func indexRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
