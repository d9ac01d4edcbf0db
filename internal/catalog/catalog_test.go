package catalog

import (
	"testing"
)

func TestLookupCompany(t *testing.T) {
	tests := []struct {
		name         string
		company      string
		expectedName string
		generic      bool
	}{
		{
			name:         "known company exact case",
			company:      "amazon",
			expectedName: "Amazon",
		},
		{
			name:         "known company mixed case",
			company:      "AmAzOn",
			expectedName: "Amazon",
		},
		{
			name:         "known company with surrounding whitespace",
			company:      "  Google ",
			expectedName: "Google",
		},
		{
			name:         "unknown company keeps caller name",
			company:      "Initech",
			expectedName: "Initech",
			generic:      true,
		},
		{
			name:         "empty company gets generic name",
			company:      "",
			expectedName: "the company",
			generic:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := LookupCompany(tt.company)
			if profile.Name != tt.expectedName {
				t.Errorf("Expected name %q, got %q", tt.expectedName, profile.Name)
			}
			if tt.generic && profile.Style != genericCompany.Style {
				t.Errorf("Expected generic style for %q, got %q", tt.company, profile.Style)
			}
			if profile.Style == "" || profile.Domain == "" || profile.Priorities == "" {
				t.Error("Profile fields must never be empty")
			}
		})
	}
}

func TestLookupRoleKeywords(t *testing.T) {
	tests := []struct {
		name            string
		role            string
		expectedKeyword string
		generic         bool
	}{
		{
			name:            "exact key",
			role:            "backend",
			expectedKeyword: "system design",
		},
		{
			name:            "substring match in longer title",
			role:            "DevOps Engineer II",
			expectedKeyword: "CI/CD",
		},
		{
			name:            "case insensitive title",
			role:            "Backend Developer",
			expectedKeyword: "APIs",
		},
		{
			name:    "unknown role falls back to generic",
			role:    "Underwater Basket Weaver",
			generic: true,
		},
		{
			name:    "empty role falls back to generic",
			role:    "",
			generic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kws := LookupRoleKeywords(tt.role)
			if len(kws) == 0 {
				t.Fatal("Keywords must never be empty")
			}
			if tt.generic {
				if kws[0] != genericRoleKeywords[0] {
					t.Errorf("Expected generic keywords for %q, got %v", tt.role, kws)
				}
				return
			}
			found := false
			for _, kw := range kws {
				if kw == tt.expectedKeyword {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Expected keyword %q in %v", tt.expectedKeyword, kws)
			}
		})
	}
}
