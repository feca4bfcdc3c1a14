// Package treeman is an embedded analytical data engine for in-memory
// record sets.
//
// A Collection holds records of any type by handle and lets callers drill
// down through up to 50 filter levels, each of which can be revisited.
// Secondary indexes (ordered field, bucketed numeric, predicate bit and
// text n-gram) answer queries against the current level and can be
// combined with set algebra. A grouping tree partitions a collection by a
// key, recursively, without copying records.
//
// # Quick Start
//
//	type Order struct {
//		ID     int
//		Status string
//		Amount decimal.Decimal
//	}
//
//	orders := treeman.New(records)
//	_ = orders.Filter(func(o *Order) bool { return o.Amount.IsPositive() })
//	_ = orders.CreateFieldIndex("status", field.Extract(func(o *Order) string { return o.Status }))
//	_ = orders.FilterByField("status", field.Where(field.Eq(field.String("open"))).Steps())
//
//	root := treeman.NewRoot("all", records, "All orders")
//	_ = root.GroupBy(func(o *Order) string { return o.Status }, "By status")
//	open, _ := root.GoToSubgroup("open")
//	next, _ := open.NextRelative()
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────┐
//	│                 treeman (facade, config)                 │
//	│   Logger · MetricsCollector · Prometheus · JSON export   │
//	└────────────┬───────────────────────────────┬─────────────┘
//	             │                               │
//	     ┌───────▼────────┐              ┌───────▼────────┐
//	     │   collection   │◄─────────────│     group      │
//	     │ levels, COW,   │   Partition  │ tree, weak     │
//	     │ index registry │              │ parent links   │
//	     └───────┬────────┘              └────────────────┘
//	             │
//	     ┌───────▼────────┐      ┌────────────────┐
//	     │     index      │─────►│     field      │
//	     │ roaring sets   │      │ Value, Op      │
//	     └────────────────┘      └────────────────┘
//
// # Configuration
//
// Tuning knobs live in Config. LoadConfig reads them from TREEMAN_*
// environment variables, falling back to DefaultConfig values.
//
// # Errors
//
// Lower packages return their own sentinel and typed errors. Classify
// wraps any of them with one of ErrIndex, ErrFieldOperation, ErrCollection
// or ErrGrouping so callers can branch on the error kind with errors.Is.
package treeman
