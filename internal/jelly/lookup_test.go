package jelly

import "testing"

func TestLookup_ImplicitIDs(t *testing.T) {
	l := newLookup("name", 4)
	for _, v := range []string{"a", "b", "c"} {
		if err := l.set(0, v); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if err := l.set(1, "z"); err != nil {
		t.Fatalf("set explicit: %v", err)
	}

	steps := []struct {
		id   uint64
		mode readMode
		want string
	}{
		{0, readNext, "z"},
		{0, readNext, "b"},
		{0, readSame, "b"},
		{3, readExplicit, "c"},
		{0, readNext, ""},
	}
	for i, s := range steps {
		got, err := l.get(s.id, s.mode)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != s.want {
			t.Fatalf("step %d: want %q, got %q", i, s.want, got)
		}
	}
}

func TestLookup_Errors(t *testing.T) {
	l := newLookup("datatype", 2)
	if _, err := l.get(0, readExplicit); err == nil {
		t.Fatal("id 0 should fail for explicit tables")
	}
	if err := l.set(3, "x"); err == nil {
		t.Fatal("set beyond size should fail")
	}
	if _, err := l.get(9, readNext); err == nil {
		t.Fatal("get beyond size should fail")
	}
}

func TestLookup_SameBeforeAnyRead(t *testing.T) {
	l := newLookup("prefix", 2)
	_ = l.set(0, "http://example.org/")
	got, err := l.get(0, readSame)
	if err != nil || got != "http://example.org/" {
		t.Fatalf("want first prefix, got %q %v", got, err)
	}
}

func TestLookup_EmptyTable(t *testing.T) {
	l := newLookup("prefix", 0)
	got, err := l.get(0, readSame)
	if err != nil || got != "" {
		t.Fatalf("empty table should resolve to empty string, got %q %v", got, err)
	}
}
