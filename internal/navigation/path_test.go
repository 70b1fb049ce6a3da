package navigation

import (
	"math/rand"
	"testing"
)

func TestNewStartsAtRoot(t *testing.T) {
	s := New()
	if got := s.Current(); got != Root {
		t.Errorf("Current() = %+v, want %+v", got, Root)
	}
	if Root.Name != "Root" || Root.ID != "root" {
		t.Errorf("Root = %+v", Root)
	}
	if n := len(s.Breadcrumbs()); n != 1 {
		t.Errorf("new state has %d entries, want 1", n)
	}
}

func TestPushAndTruncate(t *testing.T) {
	s := New()
	s.Push(Entry{Name: "Projects", ID: "p"})
	s.Push(Entry{Name: "2024", ID: "y"})

	if got := s.Current().ID; got != "y" {
		t.Fatalf("Current().ID = %q, want y", got)
	}

	if !s.TruncateTo(1) {
		t.Fatal("TruncateTo(1) = false")
	}
	if got := s.Current().ID; got != "p" {
		t.Errorf("after TruncateTo(1) Current().ID = %q, want p", got)
	}
	if n := len(s.Breadcrumbs()); n != 2 {
		t.Errorf("path length = %d, want 2", n)
	}
}

func TestTruncateOutOfRangeIsNoop(t *testing.T) {
	tests := []struct {
		name  string
		index int
	}{
		{"negative", -1},
		{"equal to length", 3},
		{"far past end", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Push(Entry{Name: "A", ID: "a"})
			s.Push(Entry{Name: "B", ID: "b"})
			before := s.Breadcrumbs()

			if s.TruncateTo(tt.index) {
				t.Errorf("TruncateTo(%d) = true, want false", tt.index)
			}
			after := s.Breadcrumbs()
			if len(after) != len(before) {
				t.Fatalf("path changed: %v -> %v", before, after)
			}
			for i := range before {
				if before[i] != after[i] {
					t.Errorf("path[%d] changed: %+v -> %+v", i, before[i], after[i])
				}
			}
		})
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.Push(Entry{Name: "A", ID: "a"})
	s.Reset()
	if len(s.Breadcrumbs()) != 1 || s.Current() != Root {
		t.Errorf("after Reset path = %v", s.Breadcrumbs())
	}
}

func TestBreadcrumbsReturnsCopy(t *testing.T) {
	s := New()
	crumbs := s.Breadcrumbs()
	crumbs[0] = Entry{Name: "mutated", ID: "x"}
	if s.Current() != Root {
		t.Error("mutating Breadcrumbs() result changed internal state")
	}
}

func TestPathNeverEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := New()
	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			s.Push(Entry{Name: "f", ID: "id"})
		case 1:
			s.TruncateTo(rng.Intn(len(s.Breadcrumbs())+4) - 2)
		case 2:
			if rng.Intn(10) == 0 {
				s.Reset()
			}
		}
		crumbs := s.Breadcrumbs()
		if len(crumbs) == 0 || crumbs[0] != Root {
			t.Fatalf("step %d: breadcrumbs = %v", i, crumbs)
		}
	}
}
