package sqlbuilder

import "testing"

func TestArgPlaceholders(t *testing.T) {
	b := New(PlaceholderDollar)
	if got := b.Arg(1); got != "$1" {
		t.Errorf("expected $1, got %s", got)
	}
	for i := 0; i < 10; i++ {
		b.Arg(i)
	}
	if got := b.Arg("x"); got != "$12" {
		t.Errorf("expected $12, got %s", got)
	}
	if b.Len() != 12 {
		t.Errorf("expected 12 args, got %d", b.Len())
	}

	q := New(PlaceholderQuestion)
	if got := q.Arg(1); got != "?" {
		t.Errorf("expected ?, got %s", got)
	}
}

func TestInsert(t *testing.T) {
	sql, args := Insert(PlaceholderDollar, "people", []string{"Name", "Age"}, []any{"bob", 30})
	want := `INSERT INTO "people" ("Name", "Age") VALUES ($1, $2)`
	if sql != want {
		t.Errorf("expected %s, got %s", want, sql)
	}
	if len(args) != 2 || args[0] != "bob" || args[1] != 30 {
		t.Errorf("unexpected args %v", args)
	}

	sql, _ = Insert(PlaceholderQuestion, `we"ird`, []string{"A"}, []any{1})
	want = `INSERT INTO "we""ird" ("A") VALUES (?)`
	if sql != want {
		t.Errorf("expected %s, got %s", want, sql)
	}
}
