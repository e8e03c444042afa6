package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	id1 := GenerateRunID()
	id2 := GenerateRunID()

	if id1 == id2 {
		t.Error("GenerateRunID should return unique IDs")
	}
	if !strings.HasPrefix(id1, "run-") {
		t.Errorf("GenerateRunID should start with 'run-': %s", id1)
	}
	if parts := strings.Split(id1, "-"); len(parts) != 4 {
		t.Errorf("GenerateRunID should be run-date-time-suffix: %s", id1)
	}
}

func TestRunIDConcurrency(t *testing.T) {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		ids = make(map[string]bool)
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				id := GenerateRunID()
				mu.Lock()
				if ids[id] {
					t.Errorf("Duplicate run ID generated: %s", id)
				}
				ids[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
