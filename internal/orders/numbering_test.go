package orders

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

type memorySequence struct {
	values map[string]int64
	fail   bool
}

func (m *memorySequence) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.fail {
		return false, errors.New("unavailable")
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	n, _ := strconv.ParseInt(toString(value), 10, 64)
	m.values[key] = n
	return true, nil
}

func (m *memorySequence) Incr(ctx context.Context, key string) (int64, error) {
	if m.fail {
		return 0, errors.New("unavailable")
	}
	m.values[key]++
	return m.values[key], nil
}

func toString(v any) string {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case string:
		return t
	}
	return ""
}

func TestRedisNumbererSeedsFromStorage(t *testing.T) {
	store := &memorySequence{values: map[string]int64{}}
	seeds := 0
	numberer, err := NewRedisNumberer(store, "mk:orders:seq", func(ctx context.Context) (int64, error) {
		seeds++
		return 41, nil
	})
	if err != nil {
		t.Fatalf("new numberer: %v", err)
	}
	ctx := context.Background()
	first, err := numberer.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	second, _ := numberer.Next(ctx)
	if first != "#000042" || second != "#000043" {
		t.Fatalf("unexpected numbers %s %s", first, second)
	}
	if seeds != 1 {
		t.Fatalf("expected one seed read got %d", seeds)
	}
}

func TestRedisNumbererKeepsExistingCounter(t *testing.T) {
	store := &memorySequence{values: map[string]int64{"k": 100}}
	numberer, _ := NewRedisNumberer(store, "k", func(ctx context.Context) (int64, error) { return 7, nil })
	got, err := numberer.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got != "#000101" {
		t.Fatalf("expected #000101 got %s", got)
	}
}

func TestRedisNumbererPropagatesFailure(t *testing.T) {
	numberer, _ := NewRedisNumberer(&memorySequence{values: map[string]int64{}, fail: true}, "k", nil)
	if _, err := numberer.Next(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseOrderNumber(t *testing.T) {
	cases := map[string]int64{"#000042": 42, "#1234567": 1234567}
	for in, want := range cases {
		got, ok := ParseOrderNumber(in)
		if !ok || got != want {
			t.Fatalf("parse %s: got %d ok=%v", in, got, ok)
		}
	}
	for _, bad := range []string{"", "000042", "#", "#abc"} {
		if _, ok := ParseOrderNumber(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestFallbackOrderNumber(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	if got := fallbackOrderNumber(at); got != "#1700000000123" {
		t.Fatalf("unexpected fallback %s", got)
	}
}
