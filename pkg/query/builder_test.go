package query_test

import (
	"testing"

	"github.com/vitalscan/vitalscan/pkg/query"
)

var projection = query.
	NewProjectionMap("public", "conversations", "c").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("model_id", "ModelID").
	Project("created_at", "CreatedAt")

func TestBuild(t *testing.T) {
	t.Run("no conditions", func(t *testing.T) {
		sql, args := query.NewBuilder(projection).Build()

		want := "SELECT c.id, c.user_id, c.model_id, c.created_at FROM public.conversations c"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want none", args)
		}
	})

	t.Run("equality conditions number parameters", func(t *testing.T) {
		sql, args := query.NewBuilder(projection).
			WhereEquals("UserID", "user-42").
			WhereEquals("ModelID", "ecg").
			Build()

		want := "SELECT c.id, c.user_id, c.model_id, c.created_at FROM public.conversations c WHERE c.user_id = $1 AND c.model_id = $2"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
		if len(args) != 2 || args[0] != "user-42" || args[1] != "ecg" {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("nil values skipped", func(t *testing.T) {
		var user *string
		sql, args := query.NewBuilder(projection).
			WhereEquals("UserID", user).
			Build()

		if len(args) != 0 {
			t.Errorf("args = %v, want none", args)
		}
		want := "SELECT c.id, c.user_id, c.model_id, c.created_at FROM public.conversations c"
		if sql != want {
			t.Errorf("sql = %q", sql)
		}
	})
}

func TestBuildSingleOrNull(t *testing.T) {
	sql, args := query.NewBuilder(projection, query.SortField{Field: "CreatedAt", Descending: true}).
		WhereEquals("UserID", "user-42").
		WhereEquals("ModelID", "ecg").
		BuildSingleOrNull()

	want := "SELECT c.id, c.user_id, c.model_id, c.created_at FROM public.conversations c WHERE c.user_id = $1 AND c.model_id = $2 ORDER BY c.created_at DESC LIMIT 1"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 2 {
		t.Errorf("args = %v", args)
	}
}

func TestBuildPage(t *testing.T) {
	sql, _ := query.NewBuilder(projection, query.SortField{Field: "CreatedAt", Descending: true}).
		BuildPage(2, 20)

	want := "SELECT c.id, c.user_id, c.model_id, c.created_at FROM public.conversations c ORDER BY c.created_at DESC LIMIT 20 OFFSET 20"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestWhereSearch(t *testing.T) {
	search := "bone"
	sql, args := query.NewBuilder(projection).
		WhereSearch(&search, "UserID", "ModelID").
		Build()

	want := "SELECT c.id, c.user_id, c.model_id, c.created_at FROM public.conversations c WHERE (c.user_id ILIKE $1 OR c.model_id ILIKE $2)"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 2 || args[0] != "%bone%" {
		t.Errorf("args = %v", args)
	}
}

func TestParseSortFields(t *testing.T) {
	fields := query.ParseSortFields("UserID,-CreatedAt")

	if len(fields) != 2 {
		t.Fatalf("fields = %v", fields)
	}
	if fields[0].Field != "UserID" || fields[0].Descending {
		t.Errorf("fields[0] = %+v", fields[0])
	}
	if fields[1].Field != "CreatedAt" || !fields[1].Descending {
		t.Errorf("fields[1] = %+v", fields[1])
	}

	if query.ParseSortFields("") != nil {
		t.Error("empty input should return nil")
	}
}
