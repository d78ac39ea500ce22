package moor

import "testing"

func TestMergeLabels(t *testing.T) {
	merged := MergeLabels(
		map[string]string{"a": "1", "b": "1"},
		nil,
		map[string]string{"b": "2", "c": "2"},
	)

	if merged["a"] != "1" {
		t.Errorf("a = %q", merged["a"])
	}
	if merged["b"] != "2" {
		t.Errorf("later maps should win, b = %q", merged["b"])
	}
	if merged["c"] != "2" {
		t.Errorf("c = %q", merged["c"])
	}
	if len(merged) != 3 {
		t.Errorf("len = %d, want 3", len(merged))
	}
}

func TestLabelFilter(t *testing.T) {
	f := LabelFilter("dev.gantry.managed", "true")
	vals := f.Get("label")
	if len(vals) != 1 || vals[0] != "dev.gantry.managed=true" {
		t.Errorf("filter = %v", vals)
	}
}

func TestMergeLabelFilters(t *testing.T) {
	f := LabelFilter("dev.gantry.managed", "true")
	f = MergeLabelFilters(f, map[string]string{"dev.gantry.fixture": "hello"})

	vals := f.Get("label")
	if len(vals) != 2 {
		t.Errorf("filter = %v, want 2 entries", vals)
	}
}
