package memory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/domain/domaintest"
	"github.com/mvaleed/seedwork/internal/query"
)

func seed(t *testing.T, store *Store, users ...*domain.User) {
	t.Helper()
	repo := store.Repositories().Users
	for _, u := range users {
		if err := repo.Create(context.Background(), u); err != nil {
			t.Fatalf("seeding %s: %v", u.Username, err)
		}
	}
}

func TestUserCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := store.Repositories().Users

	alice := domaintest.User(domaintest.WithUsername("alice"))
	seed(t, store, alice)

	tests := []struct {
		name string
		user *domain.User
	}{
		{"same id", alice},
		{"same email different case", domaintest.User(
			domaintest.WithUsername("other"),
			func(u *domain.User) { u.Email = "ALICE@example.com" })},
		{"same username", domaintest.User(
			domaintest.WithUsername("alice"),
			func(u *domain.User) { u.Email = "fresh@example.com" })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(ctx, tt.user); !errors.Is(err, domain.ErrAlreadyExists) {
				t.Errorf("expected ErrAlreadyExists, got %v", err)
			}
		})
	}
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := store.Repositories().Users

	bob := domaintest.User(domaintest.WithUsername("bob"))
	seed(t, store, bob)

	got, err := repo.GetByEmail(ctx, "BOB@example.com")
	if err != nil || got.ID != bob.ID {
		t.Fatalf("expected bob by email, got %v, %v", got, err)
	}
	got, err = repo.GetByUsername(ctx, "bob")
	if err != nil || got.ID != bob.ID {
		t.Fatalf("expected bob by username, got %v, %v", got, err)
	}

	got.FullName = "Changed Outside"
	again, _ := repo.GetByID(ctx, bob.ID)
	if again.FullName == "Changed Outside" {
		t.Error("expected stored user to be isolated from returned copies")
	}

	if _, err := repo.GetByID(ctx, domain.NewUserID()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserUpdateOptimisticLocking(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := store.Repositories().Users

	u := domaintest.User(domaintest.WithUsername("carol"))
	seed(t, store, u)

	first, _ := repo.GetByID(ctx, u.ID)
	stale, _ := repo.GetByID(ctx, u.ID)

	first.FullName = "Carol First"
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("expected version 2, got %d", first.Version)
	}

	stale.FullName = "Carol Stale"
	if err := repo.Update(ctx, stale); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	stored, _ := repo.GetByID(ctx, u.ID)
	if stored.FullName != "Carol First" {
		t.Errorf("expected first write to win, got %q", stored.FullName)
	}
}

func TestUserDeleteIsSoft(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := store.Repositories().Users

	u := domaintest.User(domaintest.WithUsername("dave"))
	seed(t, store, u)

	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.GetByID(ctx, u.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, u.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	// The username is free again once its holder is deleted.
	seed(t, store, domaintest.User(domaintest.WithUsername("dave")))
}

func TestUserListRunsPlan(t *testing.T) {
	ctx := context.Background()
	store := New()
	users := domaintest.Users(5)
	// Insert out of order; listing falls back to creation time.
	seed(t, store, users[3], users[0], users[4], users[1], users[2])

	p := query.Create(1, 2, nil, []string{"bonus:ge:20"}).Value()
	plan := query.Compile[domain.User](p).Value()

	page, err := store.Repositories().Users.List(ctx, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 4 {
		t.Errorf("expected total 4, got %d", page.Total)
	}
	if len(page.Items) != 2 || page.Items[0].Username != "user2" || page.Items[1].Username != "user3" {
		t.Errorf("expected user2, user3, got %+v", page.Items)
	}

	sorted := query.Compile[domain.User](query.Create(0, math.MaxInt, []string{"-bonus"}, nil).Value()).Value()
	page, _ = store.Repositories().Users.List(ctx, sorted)
	if page.Items[0].Username != "user4" {
		t.Errorf("expected user4 first, got %s", page.Items[0].Username)
	}
}

func TestRolesAndAssignments(t *testing.T) {
	ctx := context.Background()
	store := New()
	repos := store.Repositories()

	u := domaintest.User(domaintest.WithUsername("erin"))
	seed(t, store, u)

	editor := domaintest.Role("editor", "posts:write")
	admin := domaintest.Role("admin", "*:*")
	for _, r := range []*domain.Role{editor, admin} {
		if err := repos.Roles.Create(ctx, r); err != nil {
			t.Fatalf("creating role: %v", err)
		}
	}
	if err := repos.Roles.Create(ctx, domaintest.Role("editor")); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	for _, r := range []*domain.Role{editor, admin, editor} {
		if err := repos.Roles.AssignRole(ctx, u.ID, r.ID); err != nil {
			t.Fatalf("assigning role: %v", err)
		}
	}
	if err := repos.Roles.AssignRole(ctx, u.ID, domain.NewRoleID()); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for unknown role, got %v", err)
	}

	roles, _ := repos.Roles.GetUserRoles(ctx, u.ID)
	if len(roles) != 2 || roles[0].Name != "admin" || roles[1].Name != "editor" {
		t.Errorf("expected admin, editor, got %+v", roles)
	}

	if err := repos.Roles.Delete(ctx, editor.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict deleting assigned role, got %v", err)
	}
	if err := repos.Roles.RemoveRole(ctx, u.ID, editor.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repos.Roles.Delete(ctx, editor.ID); err != nil {
		t.Errorf("expected delete to succeed once unassigned, got %v", err)
	}
}

func TestRoleListNaturalOrder(t *testing.T) {
	ctx := context.Background()
	store := New()
	repos := store.Repositories()

	names := []string{"zeta", "alpha", "mid"}
	for i, name := range names {
		r := domaintest.Role(name)
		r.CreatedAt = domaintest.Epoch.Add(time.Duration(i) * time.Minute)
		if err := repos.Roles.Create(ctx, r); err != nil {
			t.Fatalf("creating role: %v", err)
		}
	}

	page, err := repos.Roles.List(ctx, query.Compile[domain.Role](query.Empty).Value())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, name := range names {
		if page.Items[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, page.Items[i].Name)
		}
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := store.Repositories().Users

	kept := domaintest.User(domaintest.WithUsername("kept"))
	seed(t, store, kept)

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, domaintest.User(domaintest.WithUsername("lost"))); err != nil {
			return err
		}
		if err := repo.Delete(ctx, kept.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := repo.GetByUsername(ctx, "lost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected rolled back create, got %v", err)
	}
	if _, err := repo.GetByID(ctx, kept.ID); err != nil {
		t.Errorf("expected rolled back delete, got %v", err)
	}

	err = store.WithTransaction(ctx, func(ctx context.Context) error {
		return repo.Create(ctx, domaintest.User(domaintest.WithUsername("committed")))
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "committed"); err != nil {
		t.Errorf("expected committed user, got %v", err)
	}
}
