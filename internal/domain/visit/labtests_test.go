package visit

import (
	"reflect"
	"testing"
)

func TestValidateTestCategories(t *testing.T) {
	valid := []TestCategory{
		{Category: "Hematology", Tests: []string{"Full Blood Count", "Malaria Parasite"}},
	}
	if err := ValidateTestCategories(valid); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cases := []struct {
		name string
		cats []TestCategory
	}{
		{"empty order", nil},
		{"blank category", []TestCategory{{Tests: []string{"FBC"}}}},
		{"no tests", []TestCategory{{Category: "Hematology"}}},
		{"blank test name", []TestCategory{{Category: "Hematology", Tests: []string{""}}}},
	}
	for _, tc := range cases {
		if err := ValidateTestCategories(tc.cats); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestValidateTestResults(t *testing.T) {
	valid := []TestResult{
		{Category: "Hematology", TestName: "Malaria Parasite", Result: "positive (++)", NormalRange: "negative"},
	}
	if err := ValidateTestResults(valid); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cases := []struct {
		name    string
		results []TestResult
	}{
		{"empty", nil},
		{"no category", []TestResult{{TestName: "MP", Result: "neg"}}},
		{"no test name", []TestResult{{Category: "Hematology", Result: "neg"}}},
		{"no result", []TestResult{{Category: "Hematology", TestName: "MP"}}},
	}
	for _, tc := range cases {
		if err := ValidateTestResults(tc.results); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestGroupResults_RoundTrip(t *testing.T) {
	results := []TestResult{
		{Category: "Hematology", TestName: "Full Blood Count", Result: "normal"},
		{Category: "Parasitology", TestName: "Malaria Parasite", Result: "positive"},
		{Category: "Hematology", TestName: "Hemoglobin", Result: "11.2 g/dL", NormalRange: "12-16"},
	}

	groups := GroupResults(results)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Category != "Hematology" || groups[1].Category != "Parasitology" {
		t.Errorf("expected first-seen category order, got %+v", groups)
	}
	if len(groups[0].Results) != 2 {
		t.Errorf("expected 2 hematology results, got %d", len(groups[0].Results))
	}

	flat := FlattenGroups(groups)
	if len(flat) != len(results) {
		t.Fatalf("expected %d results after flatten, got %d", len(results), len(flat))
	}
	// Flatten preserves every original result, grouped by category.
	byName := map[string]TestResult{}
	for _, r := range flat {
		byName[r.TestName] = r
	}
	for _, r := range results {
		if !reflect.DeepEqual(byName[r.TestName], r) {
			t.Errorf("result %q changed through round trip: %+v", r.TestName, byName[r.TestName])
		}
	}
}

func TestOrderedTests(t *testing.T) {
	cats := []TestCategory{
		{Category: "Hematology", Tests: []string{"FBC", "Hb"}},
		{Category: "Parasitology", Tests: []string{"MP"}},
	}
	ordered := OrderedTests(cats)
	if len(ordered) != 3 {
		t.Fatalf("expected 3 ordered tests, got %d", len(ordered))
	}
	if ordered[0].Category != "Hematology" || ordered[0].TestName != "FBC" {
		t.Errorf("unexpected first test: %+v", ordered[0])
	}
	if ordered[2].Category != "Parasitology" || ordered[2].TestName != "MP" {
		t.Errorf("unexpected last test: %+v", ordered[2])
	}
}
