package roles

import "testing"

func TestAvailableReturnsCatalogCopy(t *testing.T) {
	catalog := Available()
	if len(catalog) != 10 {
		t.Fatalf("expected 10 roles, got %d", len(catalog))
	}
	for name, desc := range catalog {
		if desc == "" {
			t.Fatalf("role %q has empty description", name)
		}
	}

	catalog[OrganizationAdmin] = "mutated"
	if Describe(OrganizationAdmin) == "mutated" {
		t.Fatalf("Available must return a copy, not the backing map")
	}
}

func TestNamesSortedAndComplete(t *testing.T) {
	names := Names()
	if len(names) != 10 {
		t.Fatalf("expected 10 names, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
	for _, name := range names {
		if !IsKnown(name) {
			t.Fatalf("listed name %q not known", name)
		}
	}
}

func TestIsKnown(t *testing.T) {
	if !IsKnown(DeveloperRead) {
		t.Fatalf("DeveloperRead must be known")
	}
	if IsKnown("SuperDuperAdmin") {
		t.Fatalf("made-up role must not be known")
	}
	if Describe("SuperDuperAdmin") != "" {
		t.Fatalf("made-up role must have empty description")
	}
}
