package index

import (
	"fmt"
	"testing"

	"github.com/hupe1980/treeman/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildText(t *testing.T, texts []string, cfg parallel.Config) *Text {
	t.Helper()
	idx, err := BuildText(texts, func(s string) string { return s }, TextOptions{Parallel: cfg})
	require.NoError(t, err)
	return idx
}

func TestNGrams(t *testing.T) {
	assert.Equal(t, []string{"hel", "ell", "llo"}, ngrams("hello", 3))
	assert.Equal(t, []string{"hi"}, ngrams("hi", 3))
	assert.Nil(t, ngrams("", 3))
	assert.Equal(t, []string{"grü", "rüß", "üße"}, ngrams("grüße", 3))
}

func TestTextSearch(t *testing.T) {
	idx := buildText(t, []string{"Payment Failed", "payment success", "refund", "PAY"}, parallel.Sequential)

	assert.Equal(t, KindText, idx.Kind())
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, []int{0, 1}, idx.Search("PAYMENT"))
	assert.Equal(t, []int{0}, idx.Search("ment fail"))
	assert.Equal(t, []int{0, 1, 3}, idx.Search("pa"))
	assert.Empty(t, idx.Search(""))
	assert.Empty(t, idx.Search("xyz"))
	assert.Equal(t, []int{2}, idx.Search("refund"))
}

func TestTextSearchRejectsNGramFalsePositives(t *testing.T) {
	// Both n-grams of "abcd" occur in record 0, but not adjacently.
	idx := buildText(t, []string{"abc bcd", "abcd"}, parallel.Sequential)
	assert.Equal(t, []int{1}, idx.Search("abcd"))
}

func TestTextSearchComplexWords(t *testing.T) {
	idx := buildText(t, []string{"payment failed error", "payment success", "transaction failed"}, parallel.Sequential)

	got := idx.SearchComplexWords([]string{"payment", "transaction"}, []string{"failed"}, nil)
	assert.Equal(t, []int{0, 2}, got)

	got = idx.SearchComplexWords([]string{"payment"}, nil, []string{"error"})
	assert.Equal(t, []int{1}, got)

	got = idx.SearchComplexWords(nil, []string{"failed"}, nil)
	assert.Equal(t, []int{0, 2}, got)

	got = idx.SearchComplexWords([]string{"nothing"}, nil, nil)
	assert.Empty(t, got)

	got = idx.SearchComplexWords(nil, nil, []string{"payment"})
	assert.Equal(t, []int{2}, got)
}

func TestTextParallelMatchesSequential(t *testing.T) {
	texts := make([]string, 3000)
	for i := range texts {
		texts[i] = fmt.Sprintf("order-%04d status %s", i, []string{"open", "closed", "pending"}[i%3])
	}
	seqIdx := buildText(t, texts, parallel.Sequential)
	parIdx := buildText(t, texts, parallel.Config{Threshold: 10, Workers: 4})

	assert.Equal(t, seqIdx.NGrams(), parIdx.NGrams())
	for _, q := range []string{"pending", "order-00", "status c", "-12", "0042"} {
		assert.Equal(t, seqIdx.Search(q), parIdx.Search(q), q)
	}
	assert.Len(t, parIdx.Search("pending"), 1000)
	assert.Equal(t, []int{42}, parIdx.Search("order-0042 "))
}

func TestTextStats(t *testing.T) {
	idx := buildText(t, []string{"aaaa", "aaab"}, parallel.Sequential)

	st := idx.Stats()
	assert.Equal(t, 2, st.Records)
	assert.Equal(t, 3, st.NGramSize)
	assert.Equal(t, 2, st.NGrams)
	assert.Equal(t, 3, st.Postings)
	assert.InDelta(t, 1.5, st.AvgPostings, 1e-9)
	assert.Equal(t, 2, idx.NGramCount())

	top := idx.TopNGrams(5)
	require.Len(t, top, 2)
	assert.Equal(t, NGramCount{NGram: "aaa", Count: 2}, top[0])
	assert.Equal(t, NGramCount{NGram: "aab", Count: 1}, top[1])
	assert.Empty(t, idx.TopNGrams(0))
}

func TestTextInvalidNGramSize(t *testing.T) {
	_, err := BuildText([]string{"x"}, func(s string) string { return s }, TextOptions{NGramSize: -1})
	require.ErrorIs(t, err, ErrInvalidNGramSize)
}

func TestComplexQueryDescription(t *testing.T) {
	assert.Equal(t, "(payment OR transaction) AND failed AND NOT refund",
		ComplexQueryDescription([]string{"payment", "transaction"}, []string{"failed"}, []string{"refund"}))
	assert.Equal(t, "failed AND NOT refund", ComplexQueryDescription(nil, []string{"failed"}, []string{"refund"}))
	assert.Equal(t, "NOT refund", ComplexQueryDescription(nil, nil, []string{"refund"}))
	assert.Equal(t, "*", ComplexQueryDescription(nil, nil, nil))
}
