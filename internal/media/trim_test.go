package media_test

import (
	"testing"

	"clipstudio/internal/media"
)

func TestValidateTrimBounds(t *testing.T) {
	cases := []struct {
		name    string
		window  media.TrimWindow
		wantErr bool
	}{
		{"valid", media.TrimWindow{StartMS: 5_000, EndMS: 45_000}, false},
		{"exactly cap", media.TrimWindow{StartMS: 0, EndMS: 60_000}, false},
		{"exactly floor", media.TrimWindow{StartMS: 1_000, EndMS: 2_000}, false},
		{"inverted", media.TrimWindow{StartMS: 10_000, EndMS: 5_000}, true},
		{"zero duration", media.TrimWindow{StartMS: 5_000, EndMS: 5_000}, true},
		{"over cap", media.TrimWindow{StartMS: 0, EndMS: 65_000}, true},
		{"under floor", media.TrimWindow{StartMS: 0, EndMS: 500}, true},
		{"negative start", media.TrimWindow{StartMS: -1, EndMS: 30_000}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := media.ValidateTrim(tc.window, 0, 0)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %+v", tc.window)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateTrimCustomCap(t *testing.T) {
	window := media.TrimWindow{StartMS: 0, EndMS: 90_000}
	if err := media.ValidateTrim(window, 0, 120_000); err != nil {
		t.Fatalf("window within custom cap rejected: %v", err)
	}
	if err := media.ValidateTrim(window, 0, 60_000); err == nil {
		t.Fatal("window over cap accepted")
	}
}

func TestParseHelpers(t *testing.T) {
	if got, ok := media.ParseJobType(" cut "); !ok || got != media.JobCut {
		t.Fatalf("ParseJobType = %q, %v", got, ok)
	}
	if _, ok := media.ParseJobType("trim"); ok {
		t.Fatal("unknown job type accepted")
	}
	if got, ok := media.ParseJobState("succeeded"); !ok || got != media.JobSucceeded {
		t.Fatalf("ParseJobState = %q, %v", got, ok)
	}
	if got, ok := media.ParseSafetyStatus("needs_review"); !ok || got != media.SafetyNeedsReview {
		t.Fatalf("ParseSafetyStatus = %q, %v", got, ok)
	}
}

func TestJobTarget(t *testing.T) {
	cut := media.Job{Type: media.JobCut, VideoID: "vid-1"}
	if cut.Target() != "vid-1" {
		t.Fatalf("cut target = %q", cut.Target())
	}
	safety := media.Job{Type: media.JobSafety, ClipID: "clip-1"}
	if safety.Target() != "clip-1" {
		t.Fatalf("safety target = %q", safety.Target())
	}
	if !media.JobSucceeded.Terminal() || !media.JobFailed.Terminal() {
		t.Fatal("terminal states not reported terminal")
	}
	if media.JobRunning.Terminal() {
		t.Fatal("RUNNING reported terminal")
	}
}

func TestFormatMS(t *testing.T) {
	if got := media.FormatMS(65_000); got != "1:05" {
		t.Fatalf("FormatMS(65000) = %q", got)
	}
	if got := media.FormatMS(-5); got != "0:00" {
		t.Fatalf("FormatMS(-5) = %q", got)
	}
}

func TestParseMS(t *testing.T) {
	cases := map[string]int64{
		"90":       90_000,
		"90.5":     90_500,
		"1:30":     90_000,
		"1:30.250": 90_250,
		"0:05":     5_000,
	}
	for input, want := range cases {
		got, err := media.ParseMS(input)
		if err != nil {
			t.Fatalf("ParseMS(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseMS(%q) = %d, want %d", input, got, want)
		}
	}

	for _, input := range []string{"", "abc", "-5", "1:75", "-1:30"} {
		if got, err := media.ParseMS(input); err == nil {
			t.Fatalf("ParseMS(%q) = %d, want error", input, got)
		}
	}
}
