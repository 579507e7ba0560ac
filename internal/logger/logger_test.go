package logger

import "testing"

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		level string
		dev   bool
	}{
		{"debug", true},
		{"info", false},
		{"bogus", false},
	} {
		l, err := New(tc.level, tc.dev)
		if err != nil {
			t.Fatalf("New(%q, %v): %v", tc.level, tc.dev, err)
		}
		if l == nil {
			t.Fatalf("New(%q, %v) returned nil logger", tc.level, tc.dev)
		}
		l.Named("test").Info("hello")
		_ = l.Sync()
	}
}
