package ingredients

import (
	"reflect"
	"testing"
)

func TestSetAdd(t *testing.T) {
	s := NewSet()

	if !s.Add("tomato") {
		t.Error("Add(\"tomato\") on empty set = false, want true")
	}
	if s.Add("tomato") {
		t.Error("Add(\"tomato\") twice = true, want false")
	}
	// Case sensitive: a different casing is a different ingredient
	if !s.Add("Tomato") {
		t.Error("Add(\"Tomato\") with \"tomato\" present = false, want true")
	}
	if s.Add("") {
		t.Error("Add(\"\") = true, want false")
	}

	want := []string{"tomato", "Tomato"}
	if got := s.Items(); !reflect.DeepEqual(got, want) {
		t.Errorf("Items() = %v, want %v", got, want)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestSetRemove(t *testing.T) {
	s := NewSet()
	s.Add("tomato")
	s.Add("basil")
	s.Add("garlic")

	if !s.Remove("basil") {
		t.Error("Remove(\"basil\") = false, want true")
	}
	if s.Remove("basil") {
		t.Error("Remove(\"basil\") twice = true, want false")
	}
	// Exact match only
	if s.Remove("Tomato") {
		t.Error("Remove(\"Tomato\") removed a differently-cased entry")
	}

	want := []string{"tomato", "garlic"}
	if got := s.Items(); !reflect.DeepEqual(got, want) {
		t.Errorf("Items() after remove = %v, want %v", got, want)
	}
}

func TestSetMerge(t *testing.T) {
	tests := []struct {
		name      string
		existing  []string
		detected  []string
		wantAdded int
		wantItems []string
	}{
		{
			name:      "Merge into empty set",
			existing:  nil,
			detected:  []string{"tomato", "basil"},
			wantAdded: 2,
			wantItems: []string{"tomato", "basil"},
		},
		{
			name:      "Duplicates are skipped, order preserved",
			existing:  []string{"tomato", "garlic"},
			detected:  []string{"basil", "tomato", "onion"},
			wantAdded: 2,
			wantItems: []string{"tomato", "garlic", "basil", "onion"},
		},
		{
			name:      "Case differences are distinct entries",
			existing:  []string{"tomato"},
			detected:  []string{"Tomato"},
			wantAdded: 1,
			wantItems: []string{"tomato", "Tomato"},
		},
		{
			name:      "Merge never removes existing entries",
			existing:  []string{"tomato", "basil"},
			detected:  []string{},
			wantAdded: 0,
			wantItems: []string{"tomato", "basil"},
		},
		{
			name:      "Empty strings in detections are ignored",
			existing:  []string{"tomato"},
			detected:  []string{"", "basil", ""},
			wantAdded: 1,
			wantItems: []string{"tomato", "basil"},
		},
		{
			name:      "Repeated detection within one merge",
			existing:  nil,
			detected:  []string{"onion", "onion", "onion"},
			wantAdded: 1,
			wantItems: []string{"onion"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet()
			for _, item := range tt.existing {
				s.Add(item)
			}
			added := s.Merge(tt.detected)
			if added != tt.wantAdded {
				t.Errorf("Merge(%v) = %d, want %d", tt.detected, added, tt.wantAdded)
			}
			if got := s.Items(); !reflect.DeepEqual(got, tt.wantItems) {
				t.Errorf("Items() after merge = %v, want %v", got, tt.wantItems)
			}
		})
	}
}

func TestSetContains(t *testing.T) {
	s := NewSet()
	s.Add("tomato")

	if !s.Contains("tomato") {
		t.Error("Contains(\"tomato\") = false, want true")
	}
	if s.Contains("Tomato") {
		t.Error("Contains(\"Tomato\") = true, want false (case sensitive)")
	}
	if s.Contains("basil") {
		t.Error("Contains(\"basil\") = true, want false")
	}
}

func TestSetClear(t *testing.T) {
	s := NewSet()
	s.Add("tomato")
	s.Add("basil")

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", s.Len())
	}
	if len(s.Items()) != 0 {
		t.Errorf("Items() after Clear() = %v, want empty", s.Items())
	}
	// The set is reusable after clearing
	if !s.Add("tomato") {
		t.Error("Add(\"tomato\") after Clear() = false, want true")
	}
}

func TestSetItemsIsACopy(t *testing.T) {
	s := NewSet()
	s.Add("tomato")
	s.Add("basil")

	items := s.Items()
	items[0] = "mutated"

	if got := s.Items()[0]; got != "tomato" {
		t.Errorf("mutating Items() result leaked into the set: %q", got)
	}
}
