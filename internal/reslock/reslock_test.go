package reslock

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestLockSerializesPerID(t *testing.T) {
	reg := New()
	id := uuid.New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := reg.Lock(id)
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}
}

func TestDistinctIDsDoNotBlock(t *testing.T) {
	reg := New()
	a, b := uuid.New(), uuid.New()
	unlockA := reg.Lock(a)
	done := make(chan struct{})
	go func() {
		unlockB := reg.Lock(b)
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
