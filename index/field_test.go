package index

import (
	"errors"
	"testing"

	"github.com/hupe1980/treeman/field"
	"github.com/hupe1980/treeman/internal/bitmap"
	"github.com/hupe1980/treeman/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(vs ...int) []field.Value {
	out := make([]field.Value, len(vs))
	for i, v := range vs {
		out[i] = field.I64(int64(v))
	}
	return out
}

func TestBuildField(t *testing.T) {
	idx, err := BuildField(ints(5, 3, 5, 1, 3, 5), parallel.Sequential)
	require.NoError(t, err)

	assert.Equal(t, KindField, idx.Kind())
	assert.Equal(t, field.KindI64, idx.ValueKind())
	assert.Equal(t, 6, idx.Len())
	assert.Equal(t, 3, idx.UniqueCount())
	assert.Equal(t, "field<i64>", idx.Describe())
	assert.Equal(t, 3, idx.Count(field.I64(5)))
	assert.Equal(t, 0, idx.Count(field.I64(4)))

	lo, ok := idx.Min()
	require.True(t, ok)
	assert.True(t, lo.Equal(field.I64(1)))
	hi, ok := idx.Max()
	require.True(t, ok)
	assert.True(t, hi.Equal(field.I64(5)))

	entries := idx.Entries()
	require.Len(t, entries, 6)
	assert.Equal(t, 3, entries[0].Position)
	assert.Equal(t, []int{1, 4}, []int{entries[1].Position, entries[2].Position})
}

func TestBuildFieldErrors(t *testing.T) {
	_, err := BuildField([]field.Value{field.I64(1), field.String("x")}, parallel.Sequential)
	require.ErrorIs(t, err, ErrMixedKinds)

	_, err = BuildField([]field.Value{{}}, parallel.Sequential)
	require.ErrorIs(t, err, field.ErrUndefinedType)

	idx, err := BuildField(nil, parallel.Sequential)
	require.NoError(t, err)
	b, err := idx.Filter(field.Eq(field.I64(1)))
	require.NoError(t, err)
	assert.True(t, b.IsEmpty())
}

func TestFieldFilter(t *testing.T) {
	idx, err := BuildField(ints(10, 20, 30, 20, 40), parallel.Sequential)
	require.NoError(t, err)

	cases := []struct {
		name string
		op   field.Operation
		want []int
	}{
		{"eq", field.Eq(field.I64(20)), []int{1, 3}},
		{"eq cross type", field.Eq(field.U8(20)), []int{1, 3}},
		{"eq miss", field.Eq(field.I64(25)), []int{}},
		{"ne", field.NotEq(field.I64(20)), []int{0, 2, 4}},
		{"gt", field.Gt(field.I64(20)), []int{2, 4}},
		{"gte", field.Gte(field.I64(20)), []int{1, 2, 3, 4}},
		{"lt", field.Lt(field.I64(30)), []int{0, 1, 3}},
		{"lte", field.Lte(field.I64(10)), []int{0}},
		{"range", field.Range(field.I64(15), field.I64(30)), []int{1, 2, 3}},
		{"in", field.In(field.I64(10), field.I64(40), field.I64(99)), []int{0, 4}},
		{"in single", field.In(field.I64(30)), []int{2}},
		{"not in", field.NotIn(field.I64(10), field.I64(40)), []int{1, 2, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := idx.Filter(tc.op)
			require.NoError(t, err)
			assert.Equal(t, tc.want, bitmap.ToPositions(b))
		})
	}
}

func TestFieldFilterDoesNotAliasStorage(t *testing.T) {
	idx, err := BuildField(ints(1, 2, 1), parallel.Sequential)
	require.NoError(t, err)

	b, err := idx.Filter(field.In(field.I64(1)))
	require.NoError(t, err)
	b.Add(1)

	again, err := idx.Filter(field.Eq(field.I64(1)))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, bitmap.ToPositions(again))
}

func TestFieldFilterConversionErrors(t *testing.T) {
	idx, err := BuildField([]field.Value{field.String("a"), field.String("b")}, parallel.Sequential)
	require.NoError(t, err)

	_, err = idx.Filter(field.Eq(field.I64(42)))
	var convErr *field.ConvertError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, field.KindString, convErr.Kind)

	_, err = idx.Filter(field.In(field.I64(1), field.Bool(true)))
	var opErr *field.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, field.OpIn, opErr.Operator)
	require.True(t, errors.As(err, &convErr))

	// One convertible value is enough.
	b, err := idx.Filter(field.In(field.I64(1), field.String("b")))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, bitmap.ToPositions(b))
}

func TestFieldFilterSteps(t *testing.T) {
	idx, err := BuildField(ints(1, 2, 3, 4, 5, 6), parallel.Sequential)
	require.NoError(t, err)

	b, err := idx.FilterSteps(field.Where(field.Gt(field.I64(2))).And(field.Lt(field.I64(6))).Steps())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, bitmap.ToPositions(b))

	b, err = idx.FilterSteps(field.Where(field.Eq(field.I64(1))).Or(field.Eq(field.I64(6))).Steps())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5}, bitmap.ToPositions(b))

	b, err = idx.FilterSteps(field.Where(field.Lte(field.I64(3))).Xor(field.Gte(field.I64(3))).Steps())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3, 4, 5}, bitmap.ToPositions(b))

	b, err = idx.FilterSteps(field.Where(field.Lte(field.I64(4))).AndNot(field.Eq(field.I64(2))).Steps())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, bitmap.ToPositions(b))

	b, err = idx.FilterSteps(field.Where(field.Lte(field.I64(4))).Invert().Steps())
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, bitmap.ToPositions(b))

	_, err = idx.FilterSteps(nil)
	require.ErrorIs(t, err, field.ErrOperationListEmpty)
}

func TestFieldFilterStepsChecksEveryStep(t *testing.T) {
	idx, err := BuildField(ints(1, 2, 3), parallel.Sequential)
	require.NoError(t, err)

	steps := field.Where(field.Eq(field.I64(100))).And(field.Eq(field.String("x"))).Steps()
	var convErr *field.ConvertError
	require.ErrorAs(t, idx.CheckSteps(steps), &convErr)
	_, err = idx.FilterSteps(steps)
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, field.KindI64, convErr.Kind)

	require.NoError(t, idx.CheckSteps(field.Where(field.Gt(field.I64(1))).Invert().Steps()))
	require.ErrorIs(t, idx.CheckSteps(nil), field.ErrOperationListEmpty)
}

func TestFieldRange(t *testing.T) {
	idx, err := BuildField(ints(10, 20, 30, 40), parallel.Sequential)
	require.NoError(t, err)

	b, err := idx.QueryRange(Interval{Low: Excluded(field.I64(10)), High: Excluded(field.I64(40))})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, bitmap.ToPositions(b))

	b, err = idx.QueryRange(Interval{Low: Unbounded(), High: Unbounded()})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, bitmap.ToPositions(b))

	b, err = idx.QueryRange(Closed(field.I64(50), field.I64(10)))
	require.NoError(t, err)
	assert.True(t, b.IsEmpty())
}

func TestFieldParallelBuild(t *testing.T) {
	values := make([]field.Value, 5000)
	for i := range values {
		values[i] = field.Int(i % 250)
	}
	idx, err := BuildField(values, parallel.Config{Threshold: 1, Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, 250, idx.UniqueCount())

	b, err := idx.Filter(field.Eq(field.Int(7)))
	require.NoError(t, err)
	assert.Equal(t, uint64(20), b.GetCardinality())
}

func TestQualityGrades(t *testing.T) {
	q := Analyze(100, 100, 1)
	assert.Equal(t, GradeExcellent, q.Grade)
	assert.True(t, q.HighCardinality())

	q = Analyze(100, 10, 10)
	assert.Equal(t, GradeGood, q.Grade)
	assert.InDelta(t, 1.0, q.Balance, 1e-9)
	assert.False(t, q.Skewed)

	q = Analyze(100, 2, 90)
	assert.Equal(t, GradeBad, q.Grade)
	assert.True(t, q.Skewed)
	assert.True(t, q.LowCardinality())
	assert.InDelta(t, 0.5, q.Selectivity(field.Eq(field.Int(1))), 1e-9)
	assert.InDelta(t, compareBadSkewed, q.Selectivity(field.Gt(field.Int(1))), 1e-9)
	assert.InDelta(t, rangeBadSkewed, q.Selectivity(field.Range(field.Int(0), field.Int(1))), 1e-9)
	assert.True(t, q.EfficientFor(field.NotEq(field.Int(1))))
	assert.False(t, q.EfficientFor(field.Range(field.Int(0), field.Int(1))))

	assert.Equal(t, Quality{}, Analyze(0, 0, 0))
}

func TestStepsSelectivity(t *testing.T) {
	q := Analyze(100, 10, 10)
	eq := field.Eq(field.Int(1))

	assert.InDelta(t, 0.01, q.StepsSelectivity(field.Where(eq).And(eq).Steps()), 1e-9)
	assert.InDelta(t, 0.2, q.StepsSelectivity(field.Where(eq).Or(eq).Steps()), 1e-9)
	assert.InDelta(t, 0.09, q.StepsSelectivity(field.Where(eq).AndNot(eq).Steps()), 1e-9)
	assert.InDelta(t, 0.9, q.StepsSelectivity(field.Where(eq).Invert().Steps()), 1e-9)
	assert.Zero(t, q.StepsSelectivity(nil))
}
