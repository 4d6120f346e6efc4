package nlp

import (
	"math"
	"strings"
	"unicode"
)

// TFIDFVectorizer is a corpus-similarity backend fit once over the
// reference vocabulary (plus aliases). Similarity is the cosine between
// TF-IDF term vectors of the query text and a reference skill, over word
// unigrams and bigrams.
type TFIDFVectorizer struct {
	idf  map[string]float64
	docs int
}

// NewTFIDFVectorizer fits the vectorizer on the given corpus documents.
func NewTFIDFVectorizer(corpus []string) *TFIDFVectorizer {
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, term := range ngrams(doc) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	v := &TFIDFVectorizer{idf: make(map[string]float64, len(df)), docs: len(corpus)}
	for term, count := range df {
		// Smoothed inverse document frequency.
		v.idf[term] = math.Log(float64(1+v.docs)/float64(1+count)) + 1
	}
	return v
}

// Similarity returns the cosine similarity between the TF-IDF vectors of
// text and ref, in [0,1]. Terms outside the fitted vocabulary contribute
// nothing.
func (v *TFIDFVectorizer) Similarity(text, ref string) float64 {
	a := v.vector(text)
	b := v.vector(ref)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for term, wa := range a {
		normA += wa * wa
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	return sim
}

// vector builds the sparse TF-IDF vector of a document.
func (v *TFIDFVectorizer) vector(doc string) map[string]float64 {
	tf := make(map[string]float64)
	for _, term := range ngrams(doc) {
		if _, ok := v.idf[term]; ok {
			tf[term]++
		}
	}
	for term := range tf {
		tf[term] *= v.idf[term]
	}
	return tf
}

// ngrams lowercases and splits doc into word unigrams and bigrams.
func ngrams(doc string) []string {
	words := strings.FieldsFunc(strings.ToLower(doc), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.'
	})
	out := make([]string, 0, len(words)*2)
	out = append(out, words...)
	for i := 0; i+1 < len(words); i++ {
		out = append(out, words[i]+" "+words[i+1])
	}
	return out
}
