package instance

import "testing"

func TestIDPrecedence(t *testing.T) {
	t.Setenv("HOSTNAME", "host-1")
	t.Setenv("DYNO", "web.1")
	t.Setenv("MERCADITO_INSTANCE_ID", "")
	if got := ID(); got != "web.1" {
		t.Fatalf("expected dyno id got %q", got)
	}

	t.Setenv("MERCADITO_INSTANCE_ID", "api-a")
	if got := ID(); got != "api-a" {
		t.Fatalf("expected explicit id got %q", got)
	}
}

func TestIDDefault(t *testing.T) {
	for _, key := range []string{"MERCADITO_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		t.Setenv(key, "")
	}
	if got := ID(); got != "local" {
		t.Fatalf("expected local got %q", got)
	}
}
