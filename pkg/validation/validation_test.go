package validation

import "testing"

func TestIsE164Phone(t *testing.T) {
	valid := []string{"+5215512345678", "+14155550100", "+123456789012345"}
	invalid := []string{"5215512345678", "+0123456789", "+123456789", "+1234567890123456", "+52 155 1234"}
	for _, v := range valid {
		if !IsE164Phone(v) {
			t.Fatalf("expected %q valid", v)
		}
	}
	for _, v := range invalid {
		if IsE164Phone(v) {
			t.Fatalf("expected %q invalid", v)
		}
	}
}

func TestIsHHMM(t *testing.T) {
	for _, v := range []string{"00:00", "09:30", "23:59"} {
		if !IsHHMM(v) {
			t.Fatalf("expected %q valid", v)
		}
	}
	for _, v := range []string{"24:00", "9:30", "12:60", "noon", ""} {
		if IsHHMM(v) {
			t.Fatalf("expected %q invalid", v)
		}
	}
	if m, ok := Minutes("01:30"); !ok || m != 90 {
		t.Fatalf("expected 90 minutes got %d ok=%v", m, ok)
	}
}

func TestIsHTTPURL(t *testing.T) {
	if !IsHTTPURL("https://maps.google.com/?q=1") {
		t.Fatal("expected valid url")
	}
	if IsHTTPURL("maps.google.com") || IsHTTPURL("ftp://x") {
		t.Fatal("expected invalid url")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana@Example.COM "); got != "ana@example.com" {
		t.Fatalf("unexpected %q", got)
	}
}
