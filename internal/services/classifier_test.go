package services

import (
	"testing"

	"budgetbook/internal/core"
)

func TestClassify(t *testing.T) {
	cats := core.DefaultCategories()

	tests := []struct {
		note string
		want string
	}{
		{"Monthly RENT payment", "Rent"},
		{"rent and food", "Rent"},
		{"food and uber", "Food"},
		{"Dinner at a Restaurant", "Food"},
		{"uber home", "Transport"},
		{"Taxi", "Transport"},
		{"bus pass", "Transport"},
		{"business lunch", "Transport"}, // substring match, "bus" is in "business"
		{"groceries", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.note, func(t *testing.T) {
			if got := Classify(tt.note, cats); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.note, got, tt.want)
			}
		})
	}
}

func TestClassifyIgnoresCategoryList(t *testing.T) {
	if got := Classify("taxi", core.Categories{}); got != "Transport" {
		t.Errorf("Classify with empty categories = %q, want Transport", got)
	}
}
