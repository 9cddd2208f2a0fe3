package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"casedesk_backend/internal/audit/repository"
	"casedesk_backend/internal/hierarchy/domain"
)

type fakeDirectory struct {
	employees []domain.Employee
}

func (f *fakeDirectory) Employees(ctx context.Context) []domain.Employee {
	return f.employees
}

type fakeUserLookup struct {
	users []repository.User
	err   error

	calls       int
	identifiers []string
}

func (f *fakeUserLookup) FetchUsers(ctx context.Context, identifiers []string) ([]repository.User, error) {
	f.calls++
	f.identifiers = identifiers
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func TestResolveIdentitiesEmployeeRef(t *testing.T) {
	directory := &fakeDirectory{employees: []domain.Employee{{ID: 7, Name: "Dana Levi"}}}
	users := &fakeUserLookup{}

	events := []Event{
		{ChangedBy: "Employee #7"},
		{ChangedBy: "Employee #99"},
	}

	resolved := ResolveIdentities(context.Background(), events, directory, users)

	if resolved[0].ChangedBy != "Dana Levi" {
		t.Fatalf("ChangedBy = %q, want directory name", resolved[0].ChangedBy)
	}
	if resolved[0].ChangedByID == nil || *resolved[0].ChangedByID != 7 {
		t.Fatalf("ChangedByID = %v, want 7", resolved[0].ChangedByID)
	}
	// Unknown directory ids stay as the raw reference.
	if resolved[1].ChangedBy != "Employee #99" {
		t.Fatalf("unknown ref rewritten to %q", resolved[1].ChangedBy)
	}
}

func TestResolveIdentitiesEmployeePrecedenceOverUsers(t *testing.T) {
	directory := &fakeDirectory{employees: []domain.Employee{{ID: 7, Name: "Dana Levi"}}}
	users := &fakeUserLookup{users: []repository.User{{Email: "employee #7", DisplayName: "Wrong Person"}}}

	seven := int64(7)
	events := []Event{{ChangedBy: "Someone Raw", ChangedByID: &seven}}

	resolved := ResolveIdentities(context.Background(), events, directory, users)
	if resolved[0].ChangedBy != "Dana Levi" {
		t.Fatalf("ChangedBy = %q, want directory precedence", resolved[0].ChangedBy)
	}
}

func TestResolveIdentitiesUserPrecedence(t *testing.T) {
	users := &fakeUserLookup{users: []repository.User{
		{Email: "dana@example.com", FirstName: "Dana", LastName: "Levi", DisplayName: "Dana Levi"},
		{Email: "other@example.com", FirstName: "Dana", LastName: "Cohen"},
	}}

	events := []Event{
		{ChangedBy: "dana@example.com"},
		{ChangedBy: "Dana Cohen"},
		{ChangedBy: "Levi"},
		{ChangedBy: "unknown person"},
	}

	resolved := ResolveIdentities(context.Background(), events, &fakeDirectory{}, users)

	if resolved[0].ChangedBy != "Dana Levi" {
		t.Fatalf("email match = %q", resolved[0].ChangedBy)
	}
	if resolved[1].ChangedBy != "Dana Cohen" {
		t.Fatalf("full-name match = %q", resolved[1].ChangedBy)
	}
	if resolved[2].ChangedBy != "Dana Levi" {
		t.Fatalf("last-name match = %q", resolved[2].ChangedBy)
	}
	if resolved[3].ChangedBy != "unknown person" {
		t.Fatalf("unresolved value rewritten to %q", resolved[3].ChangedBy)
	}
}

func TestResolveIdentitiesEmailCaseInsensitive(t *testing.T) {
	users := &fakeUserLookup{users: []repository.User{
		{Email: "dana@example.com", DisplayName: "Dana Levi"},
	}}

	events := []Event{{ChangedBy: "DANA@Example.com"}}

	resolved := ResolveIdentities(context.Background(), events, &fakeDirectory{}, users)
	if resolved[0].ChangedBy != "Dana Levi" {
		t.Fatalf("email match = %q, want case-insensitive resolution", resolved[0].ChangedBy)
	}
}

func TestResolveIdentitiesBatchesOneFetch(t *testing.T) {
	users := &fakeUserLookup{}
	events := []Event{
		{ChangedBy: "alpha"},
		{ChangedBy: "beta"},
		{ChangedBy: "alpha"},
		{ChangedBy: "System"},
		{ChangedBy: ""},
	}

	ResolveIdentities(context.Background(), events, &fakeDirectory{}, users)

	if users.calls != 1 {
		t.Fatalf("FetchUsers called %d times, want 1", users.calls)
	}
	got := append([]string(nil), users.identifiers...)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("identifiers = %v, want deduplicated alpha/beta without System and blanks", got)
	}
}

func TestResolveIdentitiesLookupFailureKeepsRaw(t *testing.T) {
	users := &fakeUserLookup{err: errors.New("timeout")}
	events := []Event{{ChangedBy: "Someone Raw"}}

	resolved := ResolveIdentities(context.Background(), events, &fakeDirectory{}, users)
	if resolved[0].ChangedBy != "Someone Raw" {
		t.Fatalf("ChangedBy = %q, want raw value kept", resolved[0].ChangedBy)
	}
}
