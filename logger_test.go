package treeman

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("Filter", func(t *testing.T) {
		var buf bytes.Buffer
		l := bufferLogger(&buf)

		l.LogFilter(ctx, "amount > 10", 100, 42, nil)
		entry := lastEntry(t, &buf)
		assert.Equal(t, "filter completed", entry["msg"])
		assert.Equal(t, "amount > 10", entry["label"])
		assert.InDelta(t, 42, entry["out"], 0)

		l.LogFilter(ctx, "broken", 100, 0, errors.New("boom"))
		entry = lastEntry(t, &buf)
		assert.Equal(t, "filter failed", entry["msg"])
		assert.Equal(t, "ERROR", entry["level"])
		assert.Equal(t, "boom", entry["error"])
	})

	t.Run("IndexBuild", func(t *testing.T) {
		var buf bytes.Buffer
		l := bufferLogger(&buf).WithIndex("status")

		l.LogIndexBuild(ctx, "status", "field", 10, nil)
		entry := lastEntry(t, &buf)
		assert.Equal(t, "index built", entry["msg"])
		assert.Equal(t, "field", entry["kind"])
	})

	t.Run("Context", func(t *testing.T) {
		var buf bytes.Buffer
		l := bufferLogger(&buf).WithLevel(3)

		l.LogNavigation(ctx, "Phones", "all", 0)
		entry := lastEntry(t, &buf)
		assert.Equal(t, "navigate", entry["msg"])
		assert.InDelta(t, 3, entry["history_level"], 0)
		assert.Equal(t, "all", entry["to"])
	})

	t.Run("GroupBy", func(t *testing.T) {
		var buf bytes.Buffer
		l := bufferLogger(&buf)

		l.LogGroupBy(ctx, "category", 3, nil)
		entry := lastEntry(t, &buf)
		assert.Equal(t, "group by completed", entry["msg"])
		assert.Equal(t, "INFO", entry["level"])
	})

	t.Run("Noop", func(t *testing.T) {
		l := NoopLogger()
		assert.NotPanics(t, func() {
			l.LogFilter(ctx, "x", 1, 1, nil)
			l.LogGroupBy(ctx, "x", 0, errors.New("boom"))
		})
		assert.NotNil(t, NewLogger(nil))
	})
}

func entries(t *testing.T, buf *bytes.Buffer) map[string]map[string]any {
	t.Helper()
	out := map[string]map[string]any{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		out[entry["msg"].(string)] = entry
	}
	return out
}

func TestPackagesShareLogFields(t *testing.T) {
	var buf bytes.Buffer
	root := NewRoot("all", items(12), "all", WithLogger(bufferLogger(&buf)))

	require.NoError(t, root.Data().CreateBitIndex("flag", func(it *item) bool { return it.Flag }))
	require.NoError(t, root.Data().Filter(func(it *item) bool { return it.ID >= 2 }))
	require.NoError(t, root.GroupBy(func(it *item) string { return it.Group }, "group"))
	child, ok := root.GoToSubgroup("b")
	require.True(t, ok)
	_, ok = child.GoToParent()
	require.True(t, ok)

	got := entries(t, &buf)

	require.Contains(t, got, "index built")
	assert.Equal(t, "flag", got["index built"]["index"])
	assert.Equal(t, "bit", got["index built"]["kind"])

	require.Contains(t, got, "filter completed")
	assert.Equal(t, "filtered", got["filter completed"]["label"])
	assert.InDelta(t, 12, got["filter completed"]["in"], 0)
	assert.InDelta(t, 10, got["filter completed"]["out"], 0)
	assert.InDelta(t, 1, got["filter completed"]["history_level"], 0)

	require.Contains(t, got, "group by completed")
	assert.Equal(t, "group", got["group by completed"]["description"])
	assert.InDelta(t, 2, got["group by completed"]["groups"], 0)

	require.Contains(t, got, "navigate")
	assert.Equal(t, "b", got["navigate"]["from"])
	assert.Equal(t, "all", got["navigate"]["to"])
}
