package store_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/cacheguard/store"
)

func ExampleNew() {
	backend := store.NewMemoryBackend()
	defer backend.Close()

	s, err := store.New(backend, store.Config{}, nil)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer s.Close()

	ctx := context.Background()

	// Store and retrieve a raw value
	_ = s.Set(ctx, "greeting", "hello", store.Options{Prefix: "demo", Raw: true})
	value, _ := s.Get(ctx, "greeting", store.Options{Prefix: "demo", Raw: true})
	fmt.Println("Value:", string(value))
	// Output:
	// Value: hello
}

func ExampleStore_Set_honeypot() {
	backend := store.NewMemoryBackend()
	defer backend.Close()

	s, _ := store.New(backend, store.Config{}, nil)
	defer s.Close()

	// Writes to honeypot keys are always rejected.
	err := s.Set(context.Background(), "admin:password", "hunter2", store.Options{})
	fmt.Println("Honeypot write rejected:", errors.Is(err, store.ErrHoneypotWrite))
	// Output:
	// Honeypot write rejected: true
}

func ExampleStore_GetOrSet() {
	backend := store.NewMemoryBackend()
	defer backend.Close()

	s, _ := store.New(backend, store.Config{}, nil)
	defer s.Close()

	ctx := context.Background()
	fetches := 0
	fallback := func(ctx context.Context) (any, error) {
		fetches++
		return map[string]string{"slug": "golang"}, nil
	}

	first, _ := s.GetOrSet(ctx, "slug:golang", fallback, store.Options{Prefix: "url"})
	second, _ := s.GetOrSet(ctx, "slug:golang", fallback, store.Options{Prefix: "url"})

	fmt.Println("First:", string(first))
	fmt.Println("Second:", string(second))
	fmt.Println("Fetches:", fetches)
	// Output:
	// First: {"slug":"golang"}
	// Second: {"slug":"golang"}
	// Fetches: 1
}
