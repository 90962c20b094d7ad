package kalshi

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurstWithinWindow(t *testing.T) {
	rl := NewRateLimiter(5, time.Second)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := rl.Acquire(ctx); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst within limit should not block, took %v", elapsed)
	}
}

func TestRateLimiterBlocksWhenExhausted(t *testing.T) {
	window := 200 * time.Millisecond
	rl := NewRateLimiter(2, window)
	ctx := context.Background()

	if err := rl.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := rl.Acquire(ctx); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := rl.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < window/2 {
		t.Errorf("third acquire should wait for the window, waited %v", elapsed)
	}
}

func TestRateLimiterContextCancel(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	if err := rl.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.Acquire(ctx)
	if err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	if err := rl.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	rl.Reset()

	start := time.Now()
	if err := rl.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("acquire after reset should not block, took %v", elapsed)
	}
}
