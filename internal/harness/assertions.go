package harness

import (
	"sort"
	"strings"
)

// evaluate checks every assertion against the result and records failures
// on it.
func evaluate(scenario *Scenario, result *Result) {
	for i, a := range scenario.Assertions {
		switch a.Type {
		case AssertItemCount:
			assertItemCount(i, a, result)
		case AssertItemValue:
			assertItemValue(i, a, result)
		case AssertItemSource:
			assertItemSource(i, a, result)
		case AssertAllUnique:
			assertAllUnique(i, result)
		case AssertErrorCode:
			if result.ErrorCode != a.Code {
				result.AddError("assertions[%d]: error code = %q, want %q", i, result.ErrorCode, a.Code)
			}
		case AssertFailedImages:
			assertFailedImages(i, a, result)
		}
	}
}

func assertItemCount(i int, a Assertion, result *Result) {
	if len(result.Trace) != a.Count {
		result.AddError("assertions[%d]: %d items recorded, want %d", i, len(result.Trace), a.Count)
	}
}

func assertItemValue(i int, a Assertion, result *Result) {
	ev, ok := result.Item(a.Index)
	if !ok {
		result.AddError("assertions[%d]: item %d was not recorded", i, a.Index)
		return
	}
	want := a.Layer + "=" + a.Value
	for _, trait := range ev.Traits {
		if trait == want {
			return
		}
	}
	result.AddError("assertions[%d]: item %d traits %v do not contain %s", i, a.Index, ev.Traits, want)
}

func assertItemSource(i int, a Assertion, result *Result) {
	ev, ok := result.Item(a.Index)
	if !ok {
		result.AddError("assertions[%d]: item %d was not recorded", i, a.Index)
		return
	}
	if ev.Source != a.Source {
		result.AddError("assertions[%d]: item %d source = %q, want %q", i, a.Index, ev.Source, a.Source)
	}
}

// assertAllUnique compares public traits only.
func assertAllUnique(i int, result *Result) {
	seen := make(map[string]int, len(result.Trace))
	for _, ev := range result.Trace {
		key := strings.Join(publicTraits(ev.Traits), ",")
		if prev, dup := seen[key]; dup {
			result.AddError("assertions[%d]: items %d and %d share traits %s", i, prev, ev.Index, key)
			continue
		}
		seen[key] = ev.Index
	}
}

func assertFailedImages(i int, a Assertion, result *Result) {
	var failed []int
	for _, ev := range result.Trace {
		if ev.Image == "failed" {
			failed = append(failed, ev.Index)
		}
	}
	want := append([]int(nil), a.Indices...)
	sort.Ints(want)
	if !equalInts(failed, want) {
		result.AddError("assertions[%d]: failed images = %v, want %v", i, failed, want)
	}
}

func publicTraits(traits []string) []string {
	out := make([]string, 0, len(traits))
	for _, t := range traits {
		if !strings.HasPrefix(t, "_") {
			out = append(out, t)
		}
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
