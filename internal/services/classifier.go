package services

import (
	"strings"

	"budgetbook/internal/core"
)

type keywordRule struct {
	keywords []string
	category string
}

// classifierRules are checked in order; the first rule with a matching keyword wins.
var classifierRules = []keywordRule{
	{keywords: []string{"rent"}, category: "Rent"},
	{keywords: []string{"food", "restaurant"}, category: "Food"},
	{keywords: []string{"uber", "taxi", "bus"}, category: "Transport"},
}

// Classify suggests a category for a free-text note, or "" when nothing matches.
// Matching is a case-insensitive substring test. The category lists are not
// consulted; the caller decides what to do with the suggestion.
func Classify(note string, _ core.Categories) string {
	lower := strings.ToLower(note)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return ""
}
