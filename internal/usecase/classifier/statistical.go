package classifier

import (
	"math"
	"sort"

	"browser-commander/internal/domain/entity"
	"browser-commander/internal/domain/textnorm"
)

type vector map[string]float64

// tfidfModel is built once from goalCorpus; queries reuse its IDF table.
type tfidfModel struct {
	idf   map[string]float64
	goals []entity.Goal
	docs  []vector
}

func newTFIDFModel() *tfidfModel {
	m := &tfidfModel{idf: map[string]float64{}}

	docTokens := make([][]string, len(goalCorpus))
	df := map[string]int{}
	for i, doc := range goalCorpus {
		tokens := textnorm.Tokenize(doc.text)
		docTokens[i] = tokens
		seen := map[string]bool{}
		for _, t := range tokens {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	n := float64(len(goalCorpus))
	for term, count := range df {
		m.idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	for i, doc := range goalCorpus {
		m.goals = append(m.goals, doc.goal)
		m.docs = append(m.docs, m.weigh(docTokens[i]))
	}
	return m
}

// weigh builds a TF-IDF vector; terms outside the corpus vocabulary are dropped.
func (m *tfidfModel) weigh(tokens []string) vector {
	v := vector{}
	if len(tokens) == 0 {
		return v
	}
	counts := map[string]int{}
	for _, t := range tokens {
		if _, ok := m.idf[t]; ok {
			counts[t]++
		}
	}
	total := float64(len(tokens))
	for t, c := range counts {
		v[t] = float64(c) / total * m.idf[t]
	}
	return v
}

// best returns the goal whose document is most similar to text.
func (m *tfidfModel) best(text string) (entity.Goal, float64) {
	q := m.weigh(textnorm.Tokenize(text))
	bestGoal, bestScore := entity.GoalGeneric, 0.0
	for i, doc := range m.docs {
		if s := cosine(q, doc); s > bestScore {
			bestGoal, bestScore = m.goals[i], s
		}
	}
	return bestGoal, bestScore
}

func cosine(a, b vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for _, t := range sortedTerms(a) {
		dot += a[t] * b[t]
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

func norm(v vector) float64 {
	var s float64
	for _, t := range sortedTerms(v) {
		s += v[t] * v[t]
	}
	return math.Sqrt(s)
}

// sortedTerms fixes the summation order so scores are bit-for-bit repeatable.
func sortedTerms(v vector) []string {
	terms := make([]string, 0, len(v))
	for t := range v {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
