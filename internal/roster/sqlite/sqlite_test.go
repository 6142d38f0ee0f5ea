package sqlite

import (
	"path/filepath"
	"reflect"
	"testing"

	"peermatch/internal/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "roster.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedStudents() []domain.Student {
	return []domain.Student{
		{ID: 1, Name: "Alice Martin", Skills: []string{"python", "sql"}, Interests: []string{"ml"}, Communities: []string{"robotics"}, Teammates: []int{2}, Teamwork: 4.5, Interactions: 40},
		{ID: 2, Name: "Bob Chen", Skills: []string{"python"}, Interests: []string{"ml", "games"}, Communities: []string{"robotics", "chess"}, Teammates: []int{1}, Teamwork: 3.8, Interactions: 35},
	}
}

func TestLoadEmptyDatabase(t *testing.T) {
	store := openStore(t)
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Load() on a fresh database = %+v, want empty", got)
	}
}

func TestSeedAndLoad(t *testing.T) {
	store := openStore(t)
	if err := store.Seed(seedStudents()); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, seedStudents()) {
		t.Errorf("Load() = %+v, want %+v", got, seedStudents())
	}
}

func TestSeedReplacesContents(t *testing.T) {
	store := openStore(t)
	if err := store.Seed(seedStudents()); err != nil {
		t.Fatal(err)
	}
	replacement := []domain.Student{
		{ID: 7, Name: "Grace Hall", Skills: []string{"go"}, Interests: []string{"games"}, Communities: []string{"chess"}, Teammates: []int{}, Teamwork: 4.0, Interactions: 3},
	}
	if err := store.Seed(replacement); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, replacement) {
		t.Errorf("Load() after reseed = %+v, want %+v", got, replacement)
	}
}

func TestAppendAndOrder(t *testing.T) {
	store := openStore(t)
	if err := store.Seed(seedStudents()); err != nil {
		t.Fatal(err)
	}
	added := domain.Student{ID: 3, Name: "Carla Diaz", Skills: []string{"design"}, Interests: []string{"art"}, Communities: []string{}, Teammates: []int{}, Teamwork: 4.0, Interactions: 5}
	if err := store.Append(added); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("Load() returned %d students, want 3", len(got))
	}
	for i, want := range []int{1, 2, 3} {
		if got[i].ID != want {
			t.Fatalf("Load() order = %v at position %d, want %d", got[i].ID, i, want)
		}
	}
	if !reflect.DeepEqual(got[2], added) {
		t.Errorf("appended student = %+v, want %+v", got[2], added)
	}
}

func TestAppendRejectsDuplicatePrimaryKey(t *testing.T) {
	store := openStore(t)
	if err := store.Seed(seedStudents()); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(seedStudents()[0]); err == nil {
		t.Error("duplicate primary key insert did not fail")
	}
}

func TestEmptyListsSurviveRoundTrip(t *testing.T) {
	store := openStore(t)
	if err := store.Append(domain.Student{ID: 1, Name: "Solo"}); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("Load() returned %d students, want 1", len(got))
	}
	st := got[0]
	if len(st.Skills) != 0 || len(st.Interests) != 0 || len(st.Communities) != 0 || len(st.Teammates) != 0 {
		t.Errorf("nil lists came back non-empty: %+v", st)
	}
}
