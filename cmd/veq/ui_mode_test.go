package main

import "testing"

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		in   string
		want uiMode
	}{
		{"", uiModeAuto},
		{"auto", uiModeAuto},
		{"AUTO", uiModeAuto},
		{" on ", uiModeOn},
		{"Off", uiModeOff},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.in)
		if err != nil {
			t.Fatalf("readUIMode(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("readUIMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestReadUIModeRejectsUnknown(t *testing.T) {
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("readUIMode(\"sometimes\") expected error, got nil")
	}
}

func TestShouldUseTUIExplicitModes(t *testing.T) {
	if !shouldUseTUI(uiModeOn) {
		t.Fatal("shouldUseTUI(on) = false, want true")
	}
	if shouldUseTUI(uiModeOff) {
		t.Fatal("shouldUseTUI(off) = true, want false")
	}
}
