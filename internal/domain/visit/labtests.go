package visit

import "fmt"

// TestCategory is one ordered lab panel: a category name and the individual
// tests requested under it. Stored as JSON on the doctor note.
type TestCategory struct {
	Category string   `json:"category"`
	Tests    []string `json:"tests"`
}

// TestResult is the outcome of a single ordered test.
type TestResult struct {
	Category    string `json:"category"`
	TestName    string `json:"test_name"`
	Result      string `json:"result"`
	NormalRange string `json:"normal_range,omitempty"`
}

// ValidateTestCategories rejects empty orders, blank category names, and
// categories with no tests.
func ValidateTestCategories(cats []TestCategory) error {
	if len(cats) == 0 {
		return fmt.Errorf("at least one lab test category is required")
	}
	for _, c := range cats {
		if c.Category == "" {
			return fmt.Errorf("lab test category name is required")
		}
		if len(c.Tests) == 0 {
			return fmt.Errorf("category %q has no tests", c.Category)
		}
		for _, t := range c.Tests {
			if t == "" {
				return fmt.Errorf("category %q has an empty test name", c.Category)
			}
		}
	}
	return nil
}

// ValidateTestResults rejects results with blank category, test name, or
// result value. NormalRange is optional.
func ValidateTestResults(results []TestResult) error {
	if len(results) == 0 {
		return fmt.Errorf("at least one test result is required")
	}
	for i, r := range results {
		if r.Category == "" {
			return fmt.Errorf("result %d: category is required", i)
		}
		if r.TestName == "" {
			return fmt.Errorf("result %d: test_name is required", i)
		}
		if r.Result == "" {
			return fmt.Errorf("result %d: result value is required", i)
		}
	}
	return nil
}

// GroupResults buckets flat results by category, preserving first-seen
// category order and per-category result order.
func GroupResults(results []TestResult) []ResultGroup {
	var groups []ResultGroup
	index := map[string]int{}
	for _, r := range results {
		i, ok := index[r.Category]
		if !ok {
			i = len(groups)
			index[r.Category] = i
			groups = append(groups, ResultGroup{Category: r.Category})
		}
		groups[i].Results = append(groups[i].Results, r)
	}
	return groups
}

// ResultGroup is the category-bucketed view of lab results used for
// rendering.
type ResultGroup struct {
	Category string       `json:"category"`
	Results  []TestResult `json:"results"`
}

// FlattenGroups is the inverse of GroupResults.
func FlattenGroups(groups []ResultGroup) []TestResult {
	var results []TestResult
	for _, g := range groups {
		results = append(results, g.Results...)
	}
	return results
}

// OrderedTests flattens ordered categories into (category, test) pairs,
// the shape the lab works against.
func OrderedTests(cats []TestCategory) []TestResult {
	var ordered []TestResult
	for _, c := range cats {
		for _, t := range c.Tests {
			ordered = append(ordered, TestResult{Category: c.Category, TestName: t})
		}
	}
	return ordered
}
