package presence

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

type fakeConn struct {
	name string
}

func (f *fakeConn) Send(context.Context, string, any) error { return nil }

func TestRegistryNetEffect(t *testing.T) {
	reg := NewRegistry()

	if _, ok := reg.Lookup("u1"); ok {
		t.Fatalf("expected empty registry")
	}

	first := &fakeConn{name: "first"}
	second := &fakeConn{name: "second"}

	reg.Register("u1", first)
	conn, ok := reg.Lookup("u1")
	if !ok || conn != Conn(first) {
		t.Fatalf("expected first connection, got %v", conn)
	}

	// Reconnect overwrites: last registration wins.
	reg.Register("u1", second)
	conn, ok = reg.Lookup("u1")
	if !ok || conn != Conn(second) {
		t.Fatalf("expected second connection after overwrite, got %v", conn)
	}

	reg.Unregister("u1")
	if _, ok := reg.Lookup("u1"); ok {
		t.Fatalf("expected absence after unregister")
	}

	// Duplicate/late disconnects are no-ops.
	reg.Unregister("u1")
	if _, ok := reg.Lookup("u1"); ok {
		t.Fatalf("expected absence after duplicate unregister")
	}
}

func TestRegistryOnlineSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Register("u1", &fakeConn{})
	reg.Register("u2", &fakeConn{})

	online := reg.Online()
	if len(online) != 2 {
		t.Fatalf("expected 2 online users, got %d", len(online))
	}
	seen := map[string]bool{}
	for _, id := range online {
		seen[id] = true
	}
	if !seen["u1"] || !seen["u2"] {
		t.Fatalf("snapshot missing users: %v", online)
	}

	reg.Unregister("u1")
	online = reg.Online()
	if len(online) != 1 || online[0] != "u2" {
		t.Fatalf("expected only u2 online, got %v", online)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", n)
			for j := 0; j < 100; j++ {
				reg.Register(id, &fakeConn{})
				reg.Lookup(id)
				reg.Online()
				reg.Unregister(id)
			}
		}(i)
	}
	wg.Wait()

	if got := len(reg.Online()); got != 0 {
		t.Fatalf("expected empty registry after churn, got %d", got)
	}
}
