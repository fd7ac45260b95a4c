package concord

import "testing"

func TestIsSuccessful(t *testing.T) {
	tests := []struct {
		name       string
		value      any
		successful bool
	}{
		{"Ignore Sentinel", Ignore, false},
		{"OK Sentinel", OK, true},
		{"Nil", nil, true},
		{"Zero Int", 0, true},
		{"Empty String", "", true},
		{"False", false, true},
		{"Data Value", "payload", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSuccessful(tt.value); got != tt.successful {
				t.Errorf("IsSuccessful(%v) = %v, want %v", tt.value, got, tt.successful)
			}
		})
	}
}

func TestSentinelString(t *testing.T) {
	if OK.String() != "ok" {
		t.Errorf("expected %q, got %q", "ok", OK.String())
	}
	if Ignore.String() != "ignore" {
		t.Errorf("expected %q, got %q", "ignore", Ignore.String())
	}
	if Sentinel(0).String() != "unknown" {
		t.Errorf("expected %q, got %q", "unknown", Sentinel(0).String())
	}
}
