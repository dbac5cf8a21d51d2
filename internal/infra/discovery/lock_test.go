package discovery_test

import (
	"errors"
	"testing"

	"github.com/ebulabs/broadcasting-hotspot/internal/infra/discovery"
)

func TestMulticastLockReferenceCounting(t *testing.T) {
	lock := discovery.NewMulticastLock("test")
	var acquired, released int
	lock.OnTransition(func() { acquired++ }, func() { released++ })

	lock.Acquire()
	lock.Acquire()
	if !lock.Held() {
		t.Fatal("Lock should be held")
	}

	lock.Release()
	if !lock.Held() {
		t.Error("Lock should still be held with one reference left")
	}

	lock.Release()
	if lock.Held() {
		t.Error("Lock should be released")
	}

	if acquired != 1 || released != 1 {
		t.Errorf("acquired=%d released=%d, want 1/1", acquired, released)
	}
}

func TestMulticastLockReleaseUnheld(t *testing.T) {
	lock := discovery.NewMulticastLock("test")
	var released int
	lock.OnTransition(nil, func() { released++ })

	lock.Release()
	lock.Acquire()
	lock.Release()
	lock.Release()

	if released != 1 {
		t.Errorf("released=%d, want 1", released)
	}
	if lock.Held() {
		t.Error("Lock should not be held")
	}
}

func TestMulticastLockScoped(t *testing.T) {
	lock := discovery.NewMulticastLock("test")
	wantErr := errors.New("failed")

	err := lock.Scoped(func() error {
		if !lock.Held() {
			t.Error("Lock should be held inside the scope")
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Scoped returned %v", err)
	}
	if lock.Held() {
		t.Error("Lock should be released after the scope")
	}

	func() {
		defer func() { _ = recover() }()
		_ = lock.Scoped(func() error { panic("boom") })
	}()
	if lock.Held() {
		t.Error("Lock should be released after a panic")
	}
}
