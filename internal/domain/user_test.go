package domain

import (
	"slices"
	"testing"

	"github.com/mvaleed/seedwork/internal/result"
)

func validationFields(t *testing.T, r result.Result) map[string][]string {
	t.Helper()
	ve, ok := r.Error().(result.ValidationError)
	if !ok {
		t.Fatalf("expected validation error, got %T %v", r.Error(), r.Error())
	}
	return ve.Errors
}

func TestNewUser(t *testing.T) {
	r := NewUser("  Alice@Example.COM ", " alice ", "Alice Liddell", UserTypeCustomer)
	if r.IsFailure() {
		t.Fatalf("expected success, got %v", r)
	}
	u := r.Value()
	if u.Email != "alice@example.com" {
		t.Errorf("expected normalised email, got %s", u.Email)
	}
	if u.Username != "alice" || u.Status != UserStatusPending || u.Version != 1 {
		t.Errorf("unexpected user %+v", u)
	}
	if u.ID.IsZero() {
		t.Error("expected an ID")
	}
}

func TestNewUserReportsEveryField(t *testing.T) {
	r := NewUser("nope", "a", "", UserType("robot"))
	fields := validationFields(t, r.Result)

	want := []string{"email", "full_name", "type", "username"}
	if got := r.Error().(result.ValidationError).Fields(); !slices.Equal(got, want) {
		t.Errorf("expected fields %v, got %v", want, got)
	}
	if fields["username"][0] != "must be 3-50 characters" {
		t.Errorf("unexpected username message %v", fields["username"])
	}
	if r.Error().Base().Code != ValidationCode {
		t.Errorf("expected %s, got %s", ValidationCode, r.Error().Base().Code)
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to UserStatus
		ok       bool
	}{
		{UserStatusPending, UserStatusActive, true},
		{UserStatusPending, UserStatusSuspended, false},
		{UserStatusActive, UserStatusSuspended, true},
		{UserStatusSuspended, UserStatusPending, false},
		{UserStatusInactive, UserStatusActive, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			u := &User{Status: tt.from}
			r := u.ChangeStatus(tt.to)
			if r.IsSuccess() != tt.ok {
				t.Fatalf("expected success=%v, got %v", tt.ok, r)
			}
			if !tt.ok && !HasSuffix(r.Error(), SuffixConflict) {
				t.Errorf("expected a conflict, got %v", r.Error())
			}
		})
	}
}

func TestActivateAndSuspendAreIdempotent(t *testing.T) {
	u := &User{Status: UserStatusActive}
	if r := u.Activate(); r.IsFailure() {
		t.Errorf("expected activate on active user to succeed, got %v", r)
	}
	if r := u.Suspend(); r.IsFailure() {
		t.Fatalf("expected suspend to succeed, got %v", r)
	}
	if r := u.Suspend(); r.IsFailure() {
		t.Errorf("expected second suspend to succeed, got %v", r)
	}
	if u.IsActive() {
		t.Error("expected suspended user to be inactive")
	}
}

func TestSetPhoneAndBonus(t *testing.T) {
	u := &User{}
	if r := u.SetPhone("12"); r.IsSuccess() {
		t.Error("expected short phone to be rejected")
	}
	if r := u.SetPhone("+1 (555) 123-4567"); r.IsFailure() || u.Phone == nil {
		t.Errorf("expected phone to be set, got %v", r)
	}
	if r := u.SetPhone(""); r.IsFailure() || u.Phone != nil {
		t.Error("expected empty phone to clear it")
	}

	if r := u.SetBonus(-1); r.IsSuccess() {
		t.Error("expected negative bonus to be rejected")
	}
	if r := u.SetBonus(12.5); r.IsFailure() || u.Bonus != 12.5 {
		t.Errorf("expected bonus 12.5, got %v", u.Bonus)
	}
}

func TestPermissions(t *testing.T) {
	admin := NewRole("Admin", "everything").Value()
	admin.AddPermission(NewPermission("*", "*").Value())

	reader := NewRole("reader", "").Value()
	reader.AddPermission(NewPermission("users", "read").Value())
	reader.AddPermission(NewPermission("users", "read").Value())
	if len(reader.Permissions) != 1 {
		t.Errorf("expected duplicate permission to be ignored, got %v", reader.Permissions)
	}

	u := &User{Roles: []Role{*reader}}
	if !u.HasPermission("users", "read") || u.HasPermission("users", "write") {
		t.Error("unexpected reader permissions")
	}
	u.Roles = append(u.Roles, *admin)
	if !u.HasPermission("roles", "delete") || !u.HasRole("admin") {
		t.Error("expected wildcard admin to grant everything")
	}
	if got := len(u.AllPermissions()); got != 2 {
		t.Errorf("expected 2 distinct permissions, got %d", got)
	}

	reader.RemovePermission(Permission{Resource: "users", Action: "read"})
	if len(reader.Permissions) != 0 {
		t.Errorf("expected permission to be removed, got %v", reader.Permissions)
	}
}

func TestParsePermission(t *testing.T) {
	p := ParsePermission("Users:Write")
	if p.IsFailure() || p.Value().String() != "users:write" {
		t.Errorf("expected users:write, got %v", p)
	}
	if ParsePermission("users").IsSuccess() {
		t.Error("expected missing action to fail")
	}
	if ParsePermission(":read").IsSuccess() {
		t.Error("expected missing resource to fail")
	}
}

func TestClaimsHasPermission(t *testing.T) {
	c := Claims{Permissions: []string{"users:*", "bogus"}}
	if !c.HasPermission("users", "delete") {
		t.Error("expected users:* to grant users:delete")
	}
	if c.HasPermission("roles", "read") {
		t.Error("expected roles:read to be denied")
	}
}
