package index

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/treeman/internal/bitmap"
	"github.com/hupe1980/treeman/internal/parallel"
	"github.com/zeebo/xxh3"
)

const (
	// DefaultNGramSize is the n-gram length used when none is configured.
	DefaultNGramSize = 3

	// Candidate counts below this are verified on the calling goroutine.
	verifyParallelMin = 100
)

// TextOptions tunes BuildText.
type TextOptions struct {
	// NGramSize is the n-gram length in characters. Zero means DefaultNGramSize.
	NGramSize int
	Parallel  parallel.Config
}

// NGramCount is an n-gram with the number of records containing it.
type NGramCount struct {
	NGram string `json:"ngram"`
	Count int    `json:"count"`
}

// TextStats summarises a text index.
type TextStats struct {
	Records     int     `json:"records"`
	NGramSize   int     `json:"ngram_size"`
	NGrams      int     `json:"ngrams"`
	Postings    int     `json:"postings"`
	AvgPostings float64 `json:"avg_postings"`
	MemoryBytes int     `json:"memory_bytes"`
}

// Text is an n-gram index over one derived string per record.
//
// Every record text is lower-cased and cut into overlapping n-grams; each
// distinct n-gram owns a bitmap of the positions containing it. Substring
// search intersects the query's n-gram bitmaps and verifies the surviving
// candidates against the stored text, since sharing every n-gram does not
// imply containing the substring.
type Text struct {
	n     int
	texts []string
	grams map[string]*roaring.Bitmap
	cfg   parallel.Config
}

// BuildText indexes extract(item) for every item.
func BuildText[T any](items []T, extract func(T) string, opts TextOptions) (*Text, error) {
	n := opts.NGramSize
	if n == 0 {
		n = DefaultNGramSize
	}
	if n < 1 {
		return nil, ErrInvalidNGramSize
	}

	t := &Text{n: n, cfg: opts.Parallel}
	t.texts = parallel.Map(opts.Parallel, items, func(_ int, it T) string {
		return strings.ToLower(extract(it))
	})

	// Phase 1: private n-gram maps per chunk.
	spans := opts.Parallel.Spans(len(t.texts))
	locals := make([]map[string][]uint32, len(spans))
	_ = parallel.Run(opts.Parallel.WorkerCount(), spans, func(c int, s parallel.Span) error {
		local := make(map[string][]uint32)
		for i := s.Lo; i < s.Hi; i++ {
			for _, g := range ngrams(t.texts[i], n) {
				ps := local[g]
				if len(ps) > 0 && ps[len(ps)-1] == uint32(i) {
					continue
				}
				local[g] = append(ps, uint32(i))
			}
		}
		locals[c] = local
		return nil
	})

	// Phase 2: merge by hash shard, then convert each posting list.
	// Chunks are visited in order, so posting lists stay ascending.
	shards := max(1, len(locals))
	merged := make([]map[string]*roaring.Bitmap, shards)
	_ = opts.Parallel.Each(shards, func(sh int) error {
		lists := make(map[string][]uint32)
		for _, local := range locals {
			for g, ps := range local {
				if int(xxh3.HashString(g)%uint64(shards)) != sh {
					continue
				}
				lists[g] = append(lists[g], ps...)
			}
		}
		out := make(map[string]*roaring.Bitmap, len(lists))
		for g, ps := range lists {
			b := roaring.New()
			b.AddMany(ps)
			b.RunOptimize()
			out[g] = b
		}
		merged[sh] = out
		return nil
	})

	total := 0
	for _, m := range merged {
		total += len(m)
	}
	t.grams = make(map[string]*roaring.Bitmap, total)
	for _, m := range merged {
		for g, b := range m {
			t.grams[g] = b
		}
	}
	return t, nil
}

// ngrams cuts s into overlapping n-character windows. A text shorter than
// n yields itself as its only n-gram.
func ngrams(s string, n int) []string {
	if s == "" {
		return nil
	}
	if isASCII(s) {
		if len(s) <= n {
			return []string{s}
		}
		out := make([]string, 0, len(s)-n+1)
		for i := 0; i+n <= len(s); i++ {
			out = append(out, s[i:i+n])
		}
		return out
	}
	rs := []rune(s)
	if len(rs) <= n {
		return []string{s}
	}
	out := make([]string, 0, len(rs)-n+1)
	for i := 0; i+n <= len(rs); i++ {
		out = append(out, string(rs[i:i+n]))
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Kind implements Index.
func (t *Text) Kind() Kind { return KindText }

// Len implements Index.
func (t *Text) Len() int { return len(t.texts) }

// Describe implements Index.
func (t *Text) Describe() string { return "text" }

// MemorySize implements Index.
func (t *Text) MemorySize() int {
	n := 0
	for g, b := range t.grams {
		n += len(g) + int(b.GetSizeInBytes())
	}
	for _, s := range t.texts {
		n += len(s)
	}
	return n
}

func (t *Text) sealed() {}

// NGramSize returns the configured n-gram length.
func (t *Text) NGramSize() int { return t.n }

// NGramCount returns the number of distinct n-grams.
func (t *Text) NGramCount() int { return len(t.grams) }

// NGrams returns the distinct n-grams, sorted.
func (t *Text) NGrams() []string {
	out := make([]string, 0, len(t.grams))
	for g := range t.grams {
		out = append(out, g)
	}
	slices.Sort(out)
	return out
}

// Stats returns a summary of the index.
func (t *Text) Stats() TextStats {
	st := TextStats{
		Records:     len(t.texts),
		NGramSize:   t.n,
		NGrams:      len(t.grams),
		MemoryBytes: t.MemorySize(),
	}
	for _, b := range t.grams {
		st.Postings += int(b.GetCardinality())
	}
	if st.NGrams > 0 {
		st.AvgPostings = float64(st.Postings) / float64(st.NGrams)
	}
	return st
}

// TopNGrams returns the k n-grams present in the most records, ties
// broken alphabetically.
func (t *Text) TopNGrams(k int) []NGramCount {
	all := make([]NGramCount, 0, len(t.grams))
	for g, b := range t.grams {
		all = append(all, NGramCount{NGram: g, Count: int(b.GetCardinality())})
	}
	slices.SortFunc(all, func(a, b NGramCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.NGram, b.NGram)
	})
	return all[:min(max(k, 0), len(all))]
}

// SearchBitmap returns the positions whose text contains query, ignoring
// case.
func (t *Text) SearchBitmap(query string) *roaring.Bitmap {
	q := strings.ToLower(query)
	if q == "" {
		return roaring.New()
	}
	if utf8.RuneCountInString(q) < t.n {
		ps := parallel.FilterIndex(t.cfg, t.texts, func(s string) bool {
			return strings.Contains(s, q)
		})
		b, _ := bitmap.FromPositions(ps)
		return b
	}

	grams := ngrams(q, t.n)
	hits := make([]*roaring.Bitmap, 0, len(grams))
	for _, g := range grams {
		b, ok := t.grams[g]
		if !ok {
			return roaring.New()
		}
		hits = append(hits, b)
	}
	var cand *roaring.Bitmap
	if len(hits) == 1 {
		cand = hits[0].Clone()
	} else {
		cand = roaring.FastAnd(hits...)
	}
	return t.verify(cand, q)
}

func (t *Text) verify(cand *roaring.Bitmap, q string) *roaring.Bitmap {
	count := int(cand.GetCardinality())
	switch {
	case count == 0:
		return cand
	case count == 1:
		if !strings.Contains(t.texts[cand.Minimum()], q) {
			return roaring.New()
		}
		return cand
	case count < verifyParallelMin:
		out := roaring.New()
		it := cand.Iterator()
		for it.HasNext() {
			p := it.Next()
			if strings.Contains(t.texts[p], q) {
				out.Add(p)
			}
		}
		return out
	default:
		keys := cand.ToArray()
		cfg := t.cfg
		cfg.Threshold = verifyParallelMin
		keep := parallel.FilterIndex(cfg, keys, func(p uint32) bool {
			return strings.Contains(t.texts[p], q)
		})
		out := make([]uint32, len(keep))
		for i, k := range keep {
			out[i] = keys[k]
		}
		return bitmap.FromKeys(out)
	}
}

// Search returns the positions whose text contains query, ascending.
func (t *Text) Search(query string) []int {
	return bitmap.ToPositions(t.SearchBitmap(query))
}

// SearchComplexWordsBitmap combines whole-word hits: the union of orWords,
// intersected with every andWord, minus every notWord. Without orWords the
// union starts from all records. An empty union is returned as is.
func (t *Text) SearchComplexWordsBitmap(orWords, andWords, notWords []string) *roaring.Bitmap {
	var result *roaring.Bitmap
	if len(orWords) == 0 {
		result = bitmap.Full(len(t.texts))
	} else {
		result = roaring.New()
		for _, w := range orWords {
			t.fold(result, w, (*roaring.Bitmap).Or)
		}
		if result.IsEmpty() {
			return result
		}
	}
	for _, w := range andWords {
		t.fold(result, w, (*roaring.Bitmap).And)
		if result.IsEmpty() {
			return result
		}
	}
	for _, w := range notWords {
		t.fold(result, w, (*roaring.Bitmap).AndNot)
	}
	return result
}

// fold applies op to acc and the hits of word, recycling the hit bitmap.
func (t *Text) fold(acc *roaring.Bitmap, word string, op func(*roaring.Bitmap, *roaring.Bitmap)) {
	hits := t.SearchBitmap(word)
	op(acc, hits)
	bitmap.Put(hits)
}

// SearchComplexWords is SearchComplexWordsBitmap as ascending positions.
func (t *Text) SearchComplexWords(orWords, andWords, notWords []string) []int {
	return bitmap.ToPositions(t.SearchComplexWordsBitmap(orWords, andWords, notWords))
}

// ComplexQueryDescription renders a word query, e.g.
// (payment OR transaction) AND failed AND NOT refund.
func ComplexQueryDescription(orWords, andWords, notWords []string) string {
	var parts []string
	switch len(orWords) {
	case 0:
	case 1:
		parts = append(parts, orWords[0])
	default:
		parts = append(parts, "("+strings.Join(orWords, " OR ")+")")
	}
	for _, w := range andWords {
		if len(parts) == 0 {
			parts = append(parts, w)
			continue
		}
		parts = append(parts, "AND "+w)
	}
	for _, w := range notWords {
		if len(parts) == 0 {
			parts = append(parts, "NOT "+w)
			continue
		}
		parts = append(parts, "AND NOT "+w)
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}
