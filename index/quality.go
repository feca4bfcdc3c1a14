package index

import (
	"math"

	"github.com/hupe1980/treeman/field"
)

// Grade classifies how useful an index is for narrowing a query.
type Grade uint8

const (
	// GradeBad indices have few distinct values or a lopsided distribution.
	GradeBad Grade = iota
	// GradeGood indices sit between the cardinality thresholds.
	GradeGood
	// GradeExcellent indices are mostly distinct values.
	GradeExcellent
)

func (g Grade) String() string {
	switch g {
	case GradeExcellent:
		return "excellent"
	case GradeGood:
		return "good"
	default:
		return "bad"
	}
}

const (
	cardinalityLow  = 0.05
	cardinalityHigh = 0.50
	balanceMin      = 0.30
	skewShare       = 0.5

	compareExcellent = 0.001
	compareGood      = 0.01
	compareBad       = 0.30
	compareBadSkewed = 0.50
	rangeExcellent   = 0.01
	rangeGood        = 0.05
	rangeBad         = 0.20
	rangeBadSkewed   = 0.40
)

// Quality summarises a field index's value distribution.
type Quality struct {
	Size        int
	Unique      int
	MaxCount    int
	Cardinality float64
	Balance     float64
	Skewed      bool
	Grade       Grade
}

// Analyze grades a distribution of size records over unique values whose
// most frequent value occurs maxCount times.
func Analyze(size, unique, maxCount int) Quality {
	q := Quality{Size: size, Unique: unique, MaxCount: maxCount}
	if size == 0 || unique == 0 {
		return q
	}
	q.Cardinality = float64(unique) / float64(size)
	avg := float64(size) / float64(unique)
	q.Balance = 1 - math.Abs(float64(maxCount)-avg)/float64(size)
	q.Skewed = float64(maxCount)/float64(size) > skewShare

	switch {
	case q.Cardinality > cardinalityHigh:
		q.Grade = GradeExcellent
	case q.Cardinality < cardinalityLow || q.Balance < balanceMin:
		q.Grade = GradeBad
	default:
		q.Grade = GradeGood
	}
	return q
}

// HighCardinality reports cardinality above the excellent threshold.
func (q Quality) HighCardinality() bool { return q.Cardinality > cardinalityHigh }

// LowCardinality reports cardinality below the bad threshold.
func (q Quality) LowCardinality() bool { return q.Cardinality < cardinalityLow }

func (q Quality) comparisonSelectivity() float64 {
	switch q.Grade {
	case GradeExcellent:
		return compareExcellent
	case GradeGood:
		return compareGood
	default:
		if q.Skewed {
			return compareBadSkewed
		}
		return compareBad
	}
}

func (q Quality) rangeSelectivity() float64 {
	switch q.Grade {
	case GradeExcellent:
		return rangeExcellent
	case GradeGood:
		return rangeGood
	default:
		if q.Skewed {
			return rangeBadSkewed
		}
		return rangeBad
	}
}

// Selectivity estimates the fraction of records op matches.
func (q Quality) Selectivity(op field.Operation) float64 {
	if q.Unique == 0 {
		return 0
	}
	u := float64(q.Unique)
	switch op.Operator {
	case field.OpEqual:
		return 1 / u
	case field.OpNotEqual:
		return (u - 1) / u
	case field.OpIn:
		return math.Min(float64(len(op.Values)), u) / u
	case field.OpNotIn:
		return 1 - math.Min(float64(len(op.Values)), u)/u
	case field.OpGreaterThan, field.OpGreaterEqual, field.OpLessThan, field.OpLessEqual:
		return q.comparisonSelectivity()
	case field.OpRange:
		return q.rangeSelectivity()
	default:
		return 1
	}
}

// StepsSelectivity estimates a combined step list, folding left to right:
// And multiplies, Or adds (capped at 1), AndNot keeps s*(1-o), Xor averages
// and Invert complements.
func (q Quality) StepsSelectivity(steps []field.Step) float64 {
	if len(steps) == 0 {
		return 0
	}
	s := q.Selectivity(steps[0].Operation)
	for _, st := range steps[1:] {
		if st.Op == field.Invert {
			s = 1 - s
			continue
		}
		o := q.Selectivity(st.Operation)
		switch st.Op {
		case field.And:
			s *= o
		case field.Or:
			s = math.Min(s+o, 1)
		case field.AndNot:
			s *= 1 - o
		case field.Xor:
			s = (s + o) / 2
		}
	}
	return math.Max(0, math.Min(1, s))
}

// EfficientFor reports whether an index with this distribution narrows op
// better than a scan: equality always, exclusion only for skewed
// low-cardinality data, ranges only for non-skewed data above the low
// cardinality threshold.
func (q Quality) EfficientFor(op field.Operation) bool {
	switch {
	case op.IsEquality():
		return true
	case op.IsInverse():
		return q.Skewed && q.Cardinality < cardinalityLow
	case op.IsRange():
		return q.Cardinality >= cardinalityLow && !q.Skewed
	default:
		return true
	}
}
