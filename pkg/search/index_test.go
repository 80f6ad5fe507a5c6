package search

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"
)

var plumeKeys = []string{
	"texas_plume-001",
	"texas_plume-002",
	"nevada_plume-010",
}

func TestGetRecommendations(t *testing.T) {
	idx := NewIndex(0)
	idx.AddItems(plumeKeys...)

	testCases := []struct {
		prefix      string
		expected    []string
		description string
	}{
		{"texas", []string{"texas_plume-001", "texas_plume-002"}, "Shared location prefix"},
		{"nevada_plume-010", []string{"nevada_plume-010"}, "Full key matches itself"},
		{"zz", []string{}, "No match"},
		{"t", []string{"texas_plume-001", "texas_plume-002"}, "Single character"},
		{"texas_plume-0011", []string{}, "Longer than any key"},
		{"", []string{"nevada_plume-010", "texas_plume-001", "texas_plume-002"}, "Empty prefix returns everything"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := idx.GetRecommendations(tc.prefix)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("GetRecommendations(%q) = %v, want %v", tc.prefix, got, tc.expected)
			}
		})
	}
}

func TestEveryPrefixFindsItsKey(t *testing.T) {
	keys := []string{
		"United States_Texas_Houston_EMIT-L2B-CH4PLM-001",
		"Mexico_Durango_BV1_BV1-1",
		"a",
		"ab",
		"abc",
	}
	idx := NewIndex(0)
	idx.AddItems(keys...)

	for _, key := range keys {
		for i := 1; i <= len(key); i++ {
			prefix := key[:i]
			if !containsString(idx.GetRecommendations(prefix), key) {
				t.Errorf("GetRecommendations(%q) missing %q", prefix, key)
			}
		}
	}
}

func TestResultsAllStartWithPrefix(t *testing.T) {
	idx := NewIndex(0)
	idx.AddItems("alpha", "alphabet", "alpine", "beta", "al")

	for _, prefix := range []string{"a", "al", "alp", "alph", "b", "x"} {
		for _, got := range idx.GetRecommendations(prefix) {
			if !strings.HasPrefix(got, prefix) {
				t.Errorf("GetRecommendations(%q) returned %q", prefix, got)
			}
		}
	}
}

func TestAddItemsIsIdempotent(t *testing.T) {
	once := NewIndex(0)
	once.AddItems(plumeKeys...)

	twice := NewIndex(0)
	twice.AddItems(plumeKeys...)
	twice.AddItems(plumeKeys...)

	if once.Len() != twice.Len() {
		t.Fatalf("Len() = %d after double insert, want %d", twice.Len(), once.Len())
	}
	for _, prefix := range []string{"", "t", "texas", "nevada", "texas_plume-002", "q"} {
		a, b := once.GetRecommendations(prefix), twice.GetRecommendations(prefix)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("prefix %q: single insert %v, double insert %v", prefix, a, b)
		}
	}
}

func TestInsertionOrderDoesNotMatter(t *testing.T) {
	keys := []string{"texas_a-1", "Texas_a-1", "texas_b-2", "nevada_c-3", "new mexico_d-4"}
	reference := NewIndex(0)
	reference.AddItems(keys...)

	for shift := 1; shift < len(keys); shift++ {
		rotated := append(append([]string{}, keys[shift:]...), keys[:shift]...)
		idx := NewIndex(0)
		idx.AddItems(rotated...)

		for _, prefix := range []string{"", "t", "texas", "ne", "new", "n"} {
			want, got := reference.GetRecommendations(prefix), idx.GetRecommendations(prefix)
			if !reflect.DeepEqual(want, got) {
				t.Errorf("rotation %d, prefix %q: got %v, want %v", shift, prefix, got, want)
			}
		}
	}
}

func TestCaseInsensitiveLookup(t *testing.T) {
	idx := NewIndex(0)
	idx.AddItems("Houston_ABC-1")

	testCases := []struct {
		prefix   string
		expected []string
	}{
		{"houston", []string{"Houston_ABC-1"}},
		{"HOUSTON", []string{"Houston_ABC-1"}},
		{"Houston_abc", []string{"Houston_ABC-1"}},
		{"houston_abc-1", []string{"Houston_ABC-1"}},
		{"austin", []string{}},
	}
	for _, tc := range testCases {
		got := idx.GetRecommendations(tc.prefix)
		if !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("GetRecommendations(%q) = %v, want %v", tc.prefix, got, tc.expected)
		}
	}
}

func TestCaseVariantsAreKept(t *testing.T) {
	testCases := []struct {
		name     string
		items    []string
		prefix   string
		expected []string
	}{
		{"two spellings", []string{"ABC", "abc"}, "abc", []string{"ABC", "abc"}},
		{"reverse insert", []string{"abc", "ABC"}, "ABC", []string{"ABC", "abc"}},
		{"with duplicates", []string{"texas_x-1", "TEXAS_X-1", "Texas_X-1", "texas_x-1"}, "tex",
			[]string{"TEXAS_X-1", "Texas_X-1", "texas_x-1"}},
		{"ordered by folded key first", []string{"b_1", "A_2", "a_1"}, "", []string{"a_1", "A_2", "b_1"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			idx := NewIndex(0)
			idx.AddItems(tc.items...)

			got := idx.GetRecommendations(tc.prefix)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("GetRecommendations(%q) = %v, want %v", tc.prefix, got, tc.expected)
			}
			for _, item := range tc.items {
				if !containsString(idx.GetRecommendations(item), item) {
					t.Errorf("GetRecommendations(%q) misses %q", item, item)
				}
			}
		})
	}

	idx := NewIndex(0)
	idx.AddItems("ABC", "abc", "abc")
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
	if got := idx.Complete("a", 1); !reflect.DeepEqual(got, []string{"ABC"}) {
		t.Errorf("Complete(a, 1) = %v", got)
	}
}

func TestEmptyItemsAreRejected(t *testing.T) {
	idx := NewIndex(0)
	idx.AddItems("", "texas_a-1", "")

	if idx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", idx.Len())
	}
	if got := idx.GetRecommendations(""); !reflect.DeepEqual(got, []string{"texas_a-1"}) {
		t.Errorf("GetRecommendations(\"\") = %v", got)
	}
}

func TestQueryBeforeAddItems(t *testing.T) {
	var zero Index
	var nilIndex *Index

	for name, idx := range map[string]*Index{
		"new":  NewIndex(5),
		"zero": &zero,
		"nil":  nilIndex,
	} {
		t.Run(name, func(t *testing.T) {
			for _, prefix := range []string{"", "texas"} {
				got := idx.GetRecommendations(prefix)
				if got == nil || len(got) != 0 {
					t.Errorf("GetRecommendations(%q) = %#v, want empty slice", prefix, got)
				}
			}
			if idx.Contains("texas") {
				t.Error("Contains(texas) = true on empty index")
			}
		})
	}
}

func TestZeroValueIndexAcceptsItems(t *testing.T) {
	var idx Index
	idx.AddItems("nevada_a-1")
	if got := idx.GetRecommendations("nev"); !reflect.DeepEqual(got, []string{"nevada_a-1"}) {
		t.Errorf("GetRecommendations(nev) = %v", got)
	}
}

func TestLimitIsDeterministic(t *testing.T) {
	var keys []string
	for i := 20; i > 0; i-- {
		keys = append(keys, fmt.Sprintf("texas_plume-%03d", i))
	}
	idx := NewIndex(5)
	idx.AddItems(keys...)

	expected := []string{
		"texas_plume-001",
		"texas_plume-002",
		"texas_plume-003",
		"texas_plume-004",
		"texas_plume-005",
	}
	if got := idx.GetRecommendations("texas"); !reflect.DeepEqual(got, expected) {
		t.Errorf("GetRecommendations(texas) = %v, want %v", got, expected)
	}
	if got := idx.Complete("texas", 2); !reflect.DeepEqual(got, expected[:2]) {
		t.Errorf("Complete(texas, 2) = %v", got)
	}
	if got := idx.Complete("texas", 0); len(got) != 20 {
		t.Errorf("Complete(texas, 0) returned %d keys, want 20", len(got))
	}
	if got := idx.Complete("texas", -1); !sort.StringsAreSorted(got) || len(got) != 20 {
		t.Errorf("Complete(texas, -1) = %v", got)
	}
}

func TestContains(t *testing.T) {
	idx := NewIndex(0)
	idx.AddItems(plumeKeys...)

	if !idx.Contains("TEXAS_PLUME-001") {
		t.Error("Contains should ignore case")
	}
	if idx.Contains("texas") {
		t.Error("Contains(texas) = true for a bare prefix")
	}
	if idx.Contains("") {
		t.Error("Contains(\"\") = true")
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
