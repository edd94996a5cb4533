package categories_test

import (
	"testing"

	"github.com/JaimeStill/dossier/internal/categories"
	"github.com/JaimeStill/dossier/internal/retention"
)

func TestFlattenInheritsParentRules(t *testing.T) {
	nodes, parents := categories.Flatten(categories.Plan)

	byCode := make(map[string]categories.PlanNode, len(nodes))
	for _, n := range nodes {
		if _, dup := byCode[n.Code]; dup {
			t.Fatalf("duplicate code %s", n.Code)
		}
		byCode[n.Code] = n
	}

	tests := []struct {
		code      string
		years     int
		trigger   retention.Trigger
		sortOrder int
		parent    string
	}{
		{"01", 6, retention.TriggerExit, 10, ""},
		{"02.01", 10, retention.TriggerExit, 21, "02"},
		{"03.04", 30, retention.TriggerExit, 34, "03"},
		{"05.05", 10, retention.TriggerDocumentDate, 55, "05"},
		{"07.03", 10, retention.TriggerDocumentDate, 73, "07"},
		{"07.05", 30, retention.TriggerDocumentDate, 75, "07"},
		{"09.02", 2, retention.TriggerDocumentDate, 92, "09"},
		{"99", 10, retention.TriggerExit, 999, ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			n, ok := byCode[tt.code]
			if !ok {
				t.Fatalf("code %s missing", tt.code)
			}
			if n.Years != tt.years {
				t.Errorf("years = %d, want %d", n.Years, tt.years)
			}
			if n.Trigger != tt.trigger {
				t.Errorf("trigger = %s, want %s", n.Trigger, tt.trigger)
			}
			if n.SortOrder != tt.sortOrder {
				t.Errorf("sort_order = %d, want %d", n.SortOrder, tt.sortOrder)
			}
			if parents[tt.code] != tt.parent {
				t.Errorf("parent = %q, want %q", parents[tt.code], tt.parent)
			}
		})
	}
}

func TestFlattenOrdersParentsFirst(t *testing.T) {
	nodes, parents := categories.Flatten(categories.Plan)

	seen := make(map[string]bool)
	for _, n := range nodes {
		if p, ok := parents[n.Code]; ok && !seen[p] {
			t.Errorf("%s appears before its parent %s", n.Code, p)
		}
		seen[n.Code] = true
	}
}

func TestCategoryRule(t *testing.T) {
	c := categories.Category{RetentionYears: 10, RetentionTrigger: retention.TriggerExit}
	rule := c.Rule()
	if rule.Years != 10 || rule.Trigger != retention.TriggerExit {
		t.Errorf("Rule() = %+v", rule)
	}
}
