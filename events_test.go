package sieve

import "testing"

// TestSignalsInitialized verifies that all pagination signals are properly initialized.
func TestSignalsInitialized(t *testing.T) {
	signals := []struct {
		name   string
		signal any
	}{
		{"PageStarted", PageStarted},
		{"PageCompleted", PageCompleted},
		{"PageFailed", PageFailed},
		{"RequestRejected", RequestRejected},
	}

	for _, s := range signals {
		if s.signal == nil {
			t.Errorf("%s signal is nil", s.name)
		}
	}
}

// TestEventKeysInitialized verifies that all event keys are properly initialized.
func TestEventKeysInitialized(t *testing.T) {
	keys := []struct {
		name string
		key  any
	}{
		{"SourceKey", SourceKey},
		{"TargetKey", TargetKey},
		{"PageNumberKey", PageNumberKey},
		{"PageSizeKey", PageSizeKey},
		{"FiltersKey", FiltersKey},
		{"OrderKey", OrderKey},
		{"TotalRecordsKey", TotalRecordsKey},
		{"RowsReturnedKey", RowsReturnedKey},
		{"DurationMsKey", DurationMsKey},
		{"ErrorKey", ErrorKey},
	}

	for _, k := range keys {
		if k.key == nil {
			t.Errorf("%s is nil", k.name)
		}
	}
}

func TestOrderString(t *testing.T) {
	if got := orderString(nil); got != "natural" {
		t.Errorf("orderString(nil) = %q", got)
	}
	keys := []SortKey{sortKey(t, "Title", false), sortKey(t, "ID", true)}
	if got := orderString(keys); got != "Title ASC, ID DESC" {
		t.Errorf("orderString() = %q", got)
	}
}
