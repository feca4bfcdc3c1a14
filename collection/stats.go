package collection

// MemoryStats describes what a collection's history retains. UsefulItems
// counts items on levels 0 through CurrentLevel, WastedItems those above it.
type MemoryStats struct {
	CurrentLevel      int   `json:"current_level"`
	StoredLevels      int   `json:"stored_levels"`
	CurrentLevelItems int   `json:"current_level_items"`
	TotalStoredItems  int   `json:"total_stored_items"`
	UsefulItems       int   `json:"useful_items"`
	WastedItems       int   `json:"wasted_items"`
	Indexes           int   `json:"indexes"`
	IndexBytes        int64 `json:"index_bytes"`
}

// IsClean reports whether no level above the current one is retained.
func (m MemoryStats) IsClean() bool { return m.WastedItems == 0 }

// Efficiency is the share of stored items that navigation can reach.
func (m MemoryStats) Efficiency() float64 {
	if m.TotalStoredItems == 0 {
		return 1
	}
	return float64(m.UsefulItems) / float64(m.TotalStoredItems)
}

// CurrentLevelRatio is the current level's share of stored items.
func (m MemoryStats) CurrentLevelRatio() float64 {
	if m.TotalStoredItems == 0 {
		return 1
	}
	return float64(m.CurrentLevelItems) / float64(m.TotalStoredItems)
}

// WasteRatio is the share of stored items above the current level.
func (m MemoryStats) WasteRatio() float64 {
	if m.TotalStoredItems == 0 {
		return 0
	}
	return float64(m.WastedItems) / float64(m.TotalStoredItems)
}

// MemoryStats reports the retained levels and indices.
func (c *Collection[T]) MemoryStats() MemoryStats {
	st := c.state.Load()
	cur := len(st.levels) - 1
	m := MemoryStats{
		CurrentLevel:      cur,
		StoredLevels:      len(st.levels),
		CurrentLevelItems: st.current().size,
	}
	for i, l := range st.levels {
		m.TotalStoredItems += l.size
		if i <= cur {
			m.UsefulItems += l.size
		} else {
			m.WastedItems += l.size
		}
	}
	for _, e := range c.reg.snapshot() {
		m.Indexes++
		m.IndexBytes += int64(e.idx.MemorySize())
	}
	return m
}
