package util

import (
	"reflect"
	"testing"
)

func TestNormalizePatternPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"./src/main.rs", "src/main.rs"},
		{"src\\utils\\helpers.rs", "src/utils/helpers.rs"},
		{" . ", ""},
		{"a/./b", "a/b"},
	}
	for _, tc := range tests {
		if got := NormalizePatternPath(tc.in); got != tc.want {
			t.Errorf("NormalizePatternPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitPath(t *testing.T) {
	if got := SplitPath("utils::helpers"); !reflect.DeepEqual(got, []string{"utils", "helpers"}) {
		t.Errorf("rust path split = %v", got)
	}
	if got := SplitPath("utils.helpers"); !reflect.DeepEqual(got, []string{"utils", "helpers"}) {
		t.Errorf("python path split = %v", got)
	}
	if got := SplitPath(""); got != nil {
		t.Errorf("empty path split = %v", got)
	}
}

func TestSortedStringKeys(t *testing.T) {
	m := map[string]int{"b": 1, "a": 2, "c": 3}
	if got := SortedStringKeys(m); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SortedStringKeys = %v", got)
	}
}
