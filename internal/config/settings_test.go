package config

import (
	"testing"
	"time"
)

type fakeSettings map[string]string

func (f fakeSettings) GetSetting(key string) (string, error) {
	return f[key], nil
}

func TestLoaderInt(t *testing.T) {
	l := NewLoader(fakeSettings{"n": "5", "bad": "x"})

	if got := l.Int("n", 1); got != 5 {
		t.Errorf("Int = %d", got)
	}
	if got := l.Int("bad", 1); got != 1 {
		t.Errorf("invalid value should fall back, got %d", got)
	}
	if got := l.Int("missing", 7); got != 7 {
		t.Errorf("missing key should fall back, got %d", got)
	}
}

func TestLoaderBool(t *testing.T) {
	l := NewLoader(fakeSettings{"yes": "true", "no": "false"})

	if !l.Bool("yes", false) {
		t.Error("true not recognized")
	}
	if l.Bool("no", true) {
		t.Error("false not recognized")
	}
	if !l.Bool("missing", true) {
		t.Error("missing key should fall back")
	}
}

func TestLoaderString(t *testing.T) {
	l := NewLoader(fakeSettings{"s": "wert"})

	if got := l.String("s", "d"); got != "wert" {
		t.Errorf("String = %q", got)
	}
	if got := l.String("missing", "d"); got != "d" {
		t.Errorf("missing key should fall back, got %q", got)
	}
}

func TestLoaderDuration(t *testing.T) {
	l := NewLoader(fakeSettings{"d": "90s", "bad": "soon"})

	if got := l.Duration("d", time.Second); got != 90*time.Second {
		t.Errorf("Duration = %v", got)
	}
	if got := l.Duration("bad", time.Second); got != time.Second {
		t.Errorf("invalid value should fall back, got %v", got)
	}
}
