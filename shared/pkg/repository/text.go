package repository

import (
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const textScoreMeta = "textScore"

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func searchTerms(filter bson.M) ([]string, bool) {
	text, ok := filter["$text"]
	if !ok {
		return nil, false
	}
	var search interface{}
	switch t := text.(type) {
	case bson.M:
		search = t["$search"]
	case bson.D:
		for _, e := range t {
			if e.Key == "$search" {
				search = e.Value
			}
		}
	}
	s, _ := search.(string)

	seen := map[string]bool{}
	var terms []string
	for _, term := range tokenize(s) {
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	return terms, true
}

// textScore weighs each matching term by how much of the field it covers.
// Zero means the document does not match.
func textScore(doc bson.M, fields []string, terms []string) float64 {
	var score float64
	for _, field := range fields {
		value, _ := doc[field].(string)
		tokens := tokenize(value)
		if len(tokens) == 0 {
			continue
		}
		for _, term := range terms {
			freq := 0
			for _, token := range tokens {
				if token == term {
					freq++
				}
			}
			if freq > 0 {
				score += 0.5 + float64(freq)/float64(2*len(tokens))
			}
		}
	}
	return score
}

func isTextScoreMeta(v interface{}) bool {
	switch t := v.(type) {
	case bson.M:
		return t["$meta"] == textScoreMeta
	case bson.D:
		return len(t) == 1 && t[0].Key == "$meta" && t[0].Value == textScoreMeta
	}
	return false
}
