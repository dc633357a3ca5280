package snap

import (
	"reflect"
	"testing"
)

func TestChangeSet_Empty(t *testing.T) {
	tests := []struct {
		name string
		cs   ChangeSet
		want bool
	}{
		{name: "all empty", cs: ChangeSet{}, want: true},
		{name: "modified only", cs: ChangeSet{Modified: []string{"a.txt"}}, want: false},
		{name: "untracked only", cs: ChangeSet{Untracked: []string{"b.txt"}}, want: false},
		{name: "staged only", cs: ChangeSet{Staged: []string{"c.txt"}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cs.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChangeSet_Union(t *testing.T) {
	t.Run("deduplicates across lists", func(t *testing.T) {
		cs := ChangeSet{
			Modified:  []string{"src/main.go", "README.md"},
			Untracked: []string{"notes.txt"},
			Staged:    []string{"src/main.go", "go.mod"},
		}

		got := cs.Union()
		want := []string{"README.md", "go.mod", "notes.txt", "src/main.go"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Union() = %v, want %v", got, want)
		}
	})

	t.Run("sorted for stable archive layout", func(t *testing.T) {
		cs := ChangeSet{Untracked: []string{"z.txt", "a.txt", "m/x.txt"}}

		got := cs.Union()
		want := []string{"a.txt", "m/x.txt", "z.txt"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Union() = %v, want %v", got, want)
		}
	})

	t.Run("empty change set", func(t *testing.T) {
		if got := (ChangeSet{}).Union(); len(got) != 0 {
			t.Errorf("Union() = %v, want empty", got)
		}
	})
}
