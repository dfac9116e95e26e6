package revision

import "testing"

func TestParseBackupName(t *testing.T) {
	cases := []struct {
		name   string
		stem   string
		ts     string
		suffix string
		ok     bool
	}{
		{"m-slime-20250101120000.png", "m-slime", "20250101120000", ".png", true},
		{"m-slime-20250101120000_3.png", "m-slime", "20250101120000_3", ".png", true},
		{"m-slime-king.png", "", "", "", false},
		{"m-slime-2025.png", "", "", "", false},
		{"20250101120000.png", "", "", "", false},
		{"m-slime-20250101120000", "", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stem, ts, suffix, ok := parseBackupName(tc.name)
			if ok != tc.ok || stem != tc.stem || ts != tc.ts || suffix != tc.suffix {
				t.Errorf("parseBackupName(%q) = %q, %q, %q, %v", tc.name, stem, ts, suffix, ok)
			}
		})
	}
}

func TestSafeKeyAndCanonicalName(t *testing.T) {
	if got := CanonicalName("maps/north\\gate", "PNG"); got != "maps-north-gate.png" {
		t.Errorf("CanonicalName = %q", got)
	}

	if got := PublicPath("/files/raw/", "m-a.png"); got != "/files/raw/m-a.png" {
		t.Errorf("PublicPath = %q", got)
	}
}

func TestKeyLocksReleased(t *testing.T) {
	k := newKeyLocks()

	unlockA := k.lock("a")
	unlockB := k.lock("b")

	if k.size() != 2 {
		t.Fatalf("size = %d, want 2", k.size())
	}

	unlockA()
	unlockB()

	if k.size() != 0 {
		t.Fatalf("size = %d, want 0", k.size())
	}
}

func TestRevisionBase(t *testing.T) {
	cases := map[string]string{
		"m-slime":                  "m-slime",
		"m-slime-20250101120000":   "m-slime",
		"m-slime-20250101120000-2": "m-slime",
		"m-slime-2":                "m-slime-2",
		"map-florence":             "map-florence",
	}

	for in, want := range cases {
		if got := RevisionBase(in); got != want {
			t.Errorf("RevisionBase(%q) = %q, want %q", in, got, want)
		}
	}
}
