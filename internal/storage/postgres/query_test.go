package postgres

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/query"
)

const selectUsers = "SELECT id, email, password_hash, phone, username, full_name, user_type, status, bonus, " +
	"email_verified, phone_verified, created_at, updated_at, deleted_at, version FROM users"

func userPlan(t *testing.T, offset, limit int, sort, filter []string) query.Plan[domain.User] {
	t.Helper()
	p := query.Create(offset, limit, sort, filter)
	if p.IsFailure() {
		t.Fatalf("expected valid params, got %v", p)
	}
	plan := query.Compile[domain.User](p.Value())
	if plan.IsFailure() {
		t.Fatalf("expected plan to compile, got %v", plan)
	}
	return plan.Value()
}

func TestBuildSelectEmptyPlan(t *testing.T) {
	list, count, err := BuildSelect(userListing, userPlan(t, 0, math.MaxInt, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := selectUsers + " WHERE deleted_at IS NULL ORDER BY created_at, id"
	if list.SQL != want {
		t.Errorf("expected %q, got %q", want, list.SQL)
	}
	if len(list.Args) != 0 {
		t.Errorf("expected no args, got %v", list.Args)
	}
	if count.SQL != "SELECT COUNT(*) FROM users WHERE deleted_at IS NULL" {
		t.Errorf("unexpected count SQL %q", count.SQL)
	}
}

func TestBuildSelectFiltersSortsAndPages(t *testing.T) {
	plan := userPlan(t, 20, 10,
		[]string{"-username", "type"},
		[]string{"status:eq:active", "bonus:gt:10.5"})

	list, count, err := BuildSelect(userListing, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := selectUsers +
		" WHERE deleted_at IS NULL AND status = $1 AND bonus > $2" +
		" ORDER BY username DESC NULLS LAST, user_type ASC NULLS FIRST, created_at, id" +
		" LIMIT $3 OFFSET $4"
	if list.SQL != want {
		t.Errorf("expected %q, got %q", want, list.SQL)
	}

	wantArgs := []any{domain.UserStatusActive, 10.5, 10, 20}
	if !slices.Equal(list.Args, wantArgs) {
		t.Errorf("expected args %v, got %v", wantArgs, list.Args)
	}

	if count.SQL != "SELECT COUNT(*) FROM users WHERE deleted_at IS NULL AND status = $1 AND bonus > $2" {
		t.Errorf("unexpected count SQL %q", count.SQL)
	}
	if !slices.Equal(count.Args, wantArgs[:2]) {
		t.Errorf("expected count args %v, got %v", wantArgs[:2], count.Args)
	}
}

func TestBuildSelectNotEqualMatchesNull(t *testing.T) {
	list, _, err := BuildSelect(userListing, userPlan(t, 0, math.MaxInt, nil, []string{"phone:ne:555"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(list.SQL, "phone IS DISTINCT FROM $1") {
		t.Errorf("expected IS DISTINCT FROM, got %q", list.SQL)
	}
}

func TestBuildSelectUnwrapsIdentifiers(t *testing.T) {
	id := domain.NewUserID()
	list, _, err := BuildSelect(userListing, userPlan(t, 0, math.MaxInt, nil, []string{"id:eq:" + id.String()}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(list.Args) != 1 {
		t.Fatalf("expected one arg, got %v", list.Args)
	}
	got, ok := list.Args[0].(uuid.UUID)
	if !ok || got != id.Value() {
		t.Errorf("expected uuid %s, got %#v", id, list.Args[0])
	}
}

func TestBuildSelectOffsetWithoutLimit(t *testing.T) {
	list, _, err := BuildSelect(userListing, userPlan(t, 5, math.MaxInt, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(list.SQL, "ORDER BY created_at, id OFFSET $1") {
		t.Errorf("expected offset only, got %q", list.SQL)
	}
	if !slices.Equal(list.Args, []any{5}) {
		t.Errorf("expected args [5], got %v", list.Args)
	}
}

func TestBuildSelectRejectsUnknownColumns(t *testing.T) {
	narrow := Listing{Table: "users", Columns: []string{"id", "email"}}

	_, _, err := BuildSelect(narrow, userPlan(t, 0, math.MaxInt, nil, []string{"status:eq:active"}))
	if !errors.Is(err, query.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for filter, got %v", err)
	}

	_, _, err = BuildSelect(narrow, userPlan(t, 0, math.MaxInt, []string{"username"}, nil))
	if !errors.Is(err, query.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for sort, got %v", err)
	}
}

func TestBuildSelectRoles(t *testing.T) {
	p := query.Create(0, 5, []string{"name"}, []string{"name:ne:admin"}).Value()
	plan := query.Compile[domain.Role](p).Value()

	list, _, err := BuildSelect(roleListing, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "SELECT id, name, description, permissions, created_at, updated_at FROM roles" +
		" WHERE name IS DISTINCT FROM $1 ORDER BY name ASC NULLS FIRST, created_at, id LIMIT $2"
	if list.SQL != want {
		t.Errorf("expected %q, got %q", want, list.SQL)
	}
}
