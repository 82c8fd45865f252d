package search

import (
	"math"
	"sort"

	"github.com/poiesic/recall/core"
)

// LexicalHit is a TF-IDF match for one note.
type LexicalHit struct {
	Note  *core.Note
	Score float64
}

// LexicalScorer ranks notes against a query with TF-IDF over the
// notes' indexable text. Document frequencies are computed from the
// supplied corpus alone, so scoping the corpus to one owner is the
// caller's job.
type LexicalScorer struct{}

// NewLexicalScorer creates a lexical scorer.
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{}
}

// Score computes TF-IDF scores for every note in the corpus and
// returns the matches sorted by score descending. Notes scoring zero
// are excluded. Ties break by most recent CreatedAt, then by ID, so
// the ordering is deterministic for a fixed input.
//
// idf uses the smoothed form ln(1 + N/(1+df)), which stays positive
// even when a term appears in most documents of a small corpus.
func (s *LexicalScorer) Score(query string, corpus []*core.Note) []LexicalHit {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 || len(corpus) == 0 {
		return []LexicalHit{}
	}

	// Distinct query terms; repeating a word in the query does not
	// double its contribution.
	terms := make(map[string]struct{}, len(queryTokens))
	for _, token := range queryTokens {
		terms[token] = struct{}{}
	}

	// Token counts per document
	type docStats struct {
		counts map[string]int
		total  int
	}
	docs := make([]docStats, len(corpus))
	df := make(map[string]int, len(terms))

	for i, note := range corpus {
		tokens := Tokenize(note.IndexableText())
		counts := make(map[string]int, len(tokens))
		for _, token := range tokens {
			counts[token]++
		}
		docs[i] = docStats{counts: counts, total: len(tokens)}

		for term := range terms {
			if counts[term] > 0 {
				df[term]++
			}
		}
	}

	n := float64(len(corpus))
	idf := make(map[string]float64, len(terms))
	for term := range terms {
		idf[term] = math.Log(1 + n/float64(1+df[term]))
	}

	hits := make([]LexicalHit, 0, len(corpus))
	for i, note := range corpus {
		if docs[i].total == 0 {
			continue
		}

		var score float64
		for term := range terms {
			count := docs[i].counts[term]
			if count == 0 {
				continue
			}
			tf := float64(count) / float64(docs[i].total)
			score += tf * idf[term]
		}
		if score == 0 {
			continue
		}

		hits = append(hits, LexicalHit{Note: note, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if !hits[i].Note.CreatedAt.Equal(hits[j].Note.CreatedAt) {
			return hits[i].Note.CreatedAt.After(hits[j].Note.CreatedAt)
		}
		return hits[i].Note.ID < hits[j].Note.ID
	})

	return hits
}
