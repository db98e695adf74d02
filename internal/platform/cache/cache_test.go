package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLRU_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(8, time.Minute)

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("expected v, got %q (%v)", got, err)
	}

	_ = c.Delete(ctx, "k")
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after delete, got %v", err)
	}
}

func TestLRU_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(2, time.Minute)

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected a to be evicted")
	}
}

func TestLRU_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(4, 20*time.Millisecond)

	_ = c.Set(ctx, "k", []byte("v"), 0)
	time.Sleep(60 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected entry to expire, got %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(4, time.Minute)

	type doctor struct {
		FullName string `json:"fullName"`
		Room     string `json:"room"`
	}
	if err := SetJSON(ctx, c, "doctor:1", doctor{FullName: "Dr. Lan", Room: "204"}, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var got doctor
	if err := GetJSON(ctx, c, "doctor:1", &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.FullName != "Dr. Lan" || got.Room != "204" {
		t.Errorf("unexpected value %+v", got)
	}

	if err := GetJSON(ctx, c, "doctor:2", &got); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}

func TestNewRedis_BadURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), "not a url", "medbook:"); err == nil {
		t.Error("expected error for malformed url")
	}
}
