package session

import (
	"reflect"
	"sync"
	"testing"
)

func TestContext_MarkAndQuery(t *testing.T) {
	c := NewContext("s1")

	c.MarkUsed("AI in CRM")
	c.MarkUsed("Data storytelling")
	c.MarkUsed("") // ignored

	if !c.WasUsed("AI in CRM") {
		t.Error("WasUsed returned false for a marked topic")
	}
	if c.WasUsed("MLOps") {
		t.Error("WasUsed returned true for an unmarked topic")
	}

	want := []string{"AI in CRM", "Data storytelling"}
	if got := c.Used(); !reflect.DeepEqual(got, want) {
		t.Errorf("Used() = %v, want %v", got, want)
	}
}

func TestRegistry_ReturnsSameContext(t *testing.T) {
	r := NewRegistry()

	a := r.Get("sess")
	a.MarkUsed("topic")

	b := r.Get("sess")
	if !b.WasUsed("topic") {
		t.Error("registry returned a fresh context for a known session id")
	}
	if r.Get("other").WasUsed("topic") {
		t.Error("sessions leaked used-topic state across ids")
	}
}

func TestContext_ConcurrentMarks(t *testing.T) {
	c := NewContext("s")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.MarkUsed("shared topic")
		}()
	}
	wg.Wait()

	if got := len(c.Used()); got != 1 {
		t.Errorf("Used() has %d entries, want 1", got)
	}
}
