package curriculum

import (
	"strings"
	"testing"
)

func TestCatalogShape(t *testing.T) {
	lfs := Lernfelder()
	if len(lfs) != 10 {
		t.Fatalf("expected 10 Lernfelder, got %d", len(lfs))
	}

	seenCodes := make(map[string]bool)
	for _, lf := range lfs {
		if !strings.HasPrefix(lf.Code, "LF") {
			t.Errorf("unexpected code %q", lf.Code)
		}
		if seenCodes[lf.Code] {
			t.Errorf("duplicate code %q", lf.Code)
		}
		seenCodes[lf.Code] = true
		if lf.Title == "" {
			t.Errorf("%s has no title", lf.Code)
		}
		if len(lf.Areas) == 0 {
			t.Errorf("%s has no areas", lf.Code)
		}

		seenAreas := make(map[string]bool)
		for _, a := range lf.Areas {
			if a.Key == "" || a.Label == "" {
				t.Errorf("%s has incomplete area %+v", lf.Code, a)
			}
			if seenAreas[a.Key] {
				t.Errorf("%s has duplicate area %q", lf.Code, a.Key)
			}
			seenAreas[a.Key] = true
		}
	}
}

func TestGet(t *testing.T) {
	lf, ok := Get("LF2")
	if !ok {
		t.Fatal("LF2 missing")
	}
	if lf.Code != "LF2" {
		t.Errorf("got %q", lf.Code)
	}
	if _, ok := Get("LF11"); ok {
		t.Error("LF11 should not exist")
	}
}

func TestValidArea(t *testing.T) {
	if !ValidArea("LF2", "vitalzeichen") {
		t.Error("LF2/vitalzeichen should be valid")
	}
	if ValidArea("LF2", "nope") {
		t.Error("LF2/nope should be invalid")
	}
	if ValidArea("LF99", "vitalzeichen") {
		t.Error("unknown lernfeld should be invalid")
	}
}

func TestAreaLabel(t *testing.T) {
	if got := AreaLabel("LF2", "vitalzeichen"); got != "Vitalzeichen & Beobachtung" {
		t.Errorf("got %q", got)
	}
	if got := AreaLabel("LF2", "nope"); got != "nope" {
		t.Errorf("unknown area should fall back to the key, got %q", got)
	}
}

func TestValidLevel(t *testing.T) {
	for level := MinLevel; level <= MaxLevel; level++ {
		if !ValidLevel(level) {
			t.Errorf("level %d should be valid", level)
		}
		if LevelLabel[level] == "" {
			t.Errorf("level %d has no label", level)
		}
	}
	if ValidLevel(0) || ValidLevel(4) {
		t.Error("levels outside 1..3 should be invalid")
	}
}
