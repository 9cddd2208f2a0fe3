package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"casedesk_backend/internal/audit/repository"
	"casedesk_backend/internal/hierarchy/domain"
)

// employeeRefPattern matches the "Employee #<int>" identity convention.
var employeeRefPattern = regexp.MustCompile(`^Employee #(\d+)$`)

// EmployeeDirectory is the slice of the reference cache the identity pass
// needs.
type EmployeeDirectory interface {
	Employees(ctx context.Context) []domain.Employee
}

// UserLookup narrows user-table candidates for a batch of raw identifiers.
type UserLookup interface {
	FetchUsers(ctx context.Context, identifiers []string) ([]repository.User, error)
}

// ResolveIdentities rewrites raw changed_by values to display names in one
// batched pass over the full event list. "Employee #N" values resolve via
// the employee directory and take precedence over user-table resolution;
// all other values are matched against users by exact email, then
// case-insensitive full, first and last name. Unresolved values remain raw.
func ResolveIdentities(ctx context.Context, events []Event, directory EmployeeDirectory, users UserLookup) []Event {
	employeeIDs := make(map[int64]bool)
	rawValues := make(map[string]bool)

	for _, ev := range events {
		if ev.ChangedByID != nil {
			employeeIDs[*ev.ChangedByID] = true
			continue
		}
		if id, ok := parseEmployeeRef(ev.ChangedBy); ok {
			employeeIDs[id] = true
			continue
		}
		if strings.TrimSpace(ev.ChangedBy) != "" && ev.ChangedBy != ActorSystem {
			rawValues[ev.ChangedBy] = true
		}
	}

	employeeNames := make(map[int64]string)
	if len(employeeIDs) > 0 {
		for _, emp := range directory.Employees(ctx) {
			if employeeIDs[emp.ID] {
				employeeNames[emp.ID] = emp.Name
			}
		}
	}

	userNames := resolveUserNames(ctx, rawValues, users)

	resolved := make([]Event, len(events))
	for i, ev := range events {
		if ev.ChangedByID != nil {
			if name, ok := employeeNames[*ev.ChangedByID]; ok && name != "" {
				ev.ChangedBy = name
			}
			resolved[i] = ev
			continue
		}
		if id, ok := parseEmployeeRef(ev.ChangedBy); ok {
			if name, ok := employeeNames[id]; ok && name != "" {
				ev.ChangedBy = name
				ev.ChangedByID = &id
			}
			resolved[i] = ev
			continue
		}
		if name, ok := userNames[ev.ChangedBy]; ok {
			ev.ChangedBy = name
		}
		resolved[i] = ev
	}
	return resolved
}

// resolveUserNames performs the batched user-table pass: one fetch with all
// raw identifiers, then in-memory matching in precedence order.
func resolveUserNames(ctx context.Context, rawValues map[string]bool, users UserLookup) map[string]string {
	if len(rawValues) == 0 || users == nil {
		return map[string]string{}
	}

	identifiers := make([]string, 0, len(rawValues))
	for raw := range rawValues {
		identifiers = append(identifiers, raw)
	}

	rows, err := users.FetchUsers(ctx, identifiers)
	if err != nil || len(rows) == 0 {
		// Ambiguous identities stay raw; this is degraded display, not an error.
		return map[string]string{}
	}

	byEmail := make(map[string]repository.User)
	byFullName := make(map[string]repository.User)
	byFirstName := make(map[string]repository.User)
	byLastName := make(map[string]repository.User)
	for _, u := range rows {
		putFirst(byEmail, strings.ToLower(u.Email), u)
		putFirst(byFullName, lowerTrim(u.DisplayName), u)
		putFirst(byFullName, lowerTrim(u.FirstName+" "+u.LastName), u)
		putFirst(byFirstName, lowerTrim(u.FirstName), u)
		putFirst(byLastName, lowerTrim(u.LastName), u)
	}

	resolved := make(map[string]string, len(rawValues))
	for raw := range rawValues {
		key := lowerTrim(raw)
		if key == "" {
			continue
		}
		for _, index := range []map[string]repository.User{byEmail, byFullName, byFirstName, byLastName} {
			if u, ok := index[key]; ok {
				resolved[raw] = userDisplayName(u)
				break
			}
		}
	}
	return resolved
}

func userDisplayName(u repository.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Email
}

func parseEmployeeRef(raw string) (int64, bool) {
	match := employeeRefPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func putFirst(index map[string]repository.User, key string, u repository.User) {
	if key == "" {
		return
	}
	if _, taken := index[key]; !taken {
		index[key] = u
	}
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
