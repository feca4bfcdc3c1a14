// Package logging holds the log messages and field names shared by every
// treeman package.
package logging

import (
	"context"
	"log/slog"
)

// Field names.
const (
	KeyLabel        = "label"
	KeyIndex        = "index"
	KeyKind         = "kind"
	KeyRecords      = "records"
	KeyHistoryLevel = "history_level"
	KeyDescription  = "description"
	KeyGroups       = "groups"
	KeyError        = "error"
)

// Filter logs a filter commit, or its failure when err is set.
func Filter(ctx context.Context, l *slog.Logger, label string, in, out int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "filter failed",
			KeyLabel, label,
			KeyError, err,
		)
		return
	}
	l.DebugContext(ctx, "filter completed",
		KeyLabel, label,
		"in", in,
		"out", out,
	)
}

// IndexBuild logs an index build, or its failure when err is set.
func IndexBuild(ctx context.Context, l *slog.Logger, name, kind string, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			KeyIndex, name,
			KeyKind, kind,
			KeyError, err,
		)
		return
	}
	l.DebugContext(ctx, "index built",
		KeyIndex, name,
		KeyKind, kind,
		KeyRecords, records,
	)
}

// Navigation logs a move between tree nodes.
func Navigation(ctx context.Context, l *slog.Logger, from, to string, depth int) {
	l.DebugContext(ctx, "navigate",
		"from", from,
		"to", to,
		"depth", depth,
	)
}

// GroupBy logs a grouping, or its failure when err is set.
func GroupBy(ctx context.Context, l *slog.Logger, description string, groups int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "group by failed",
			KeyDescription, description,
			KeyError, err,
		)
		return
	}
	l.InfoContext(ctx, "group by completed",
		KeyDescription, description,
		KeyGroups, groups,
	)
}
