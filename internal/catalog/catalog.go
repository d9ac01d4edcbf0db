// Package catalog holds the static company and role data used to flavor
// question generation. Pure data plus lookup helpers, no behavior.
package catalog

import "strings"

// CompanyProfile captures how a company is known to run interviews
type CompanyProfile struct {
	Name       string
	Style      string // overall interview style
	Domain     string // business/technical domain
	Priorities string // what interviewers weigh most
}

// genericCompany is returned for companies not in the catalog
var genericCompany = CompanyProfile{
	Name:       "the company",
	Style:      "a balanced mix of behavioral and role-specific questions",
	Domain:     "its industry",
	Priorities: "clear communication, problem solving, and role fit",
}

var companies = map[string]CompanyProfile{
	"google": {
		Name:       "Google",
		Style:      "structured interviews heavy on problem solving and 'Googleyness'",
		Domain:     "large-scale web services, search, and cloud infrastructure",
		Priorities: "analytical thinking, coding fundamentals, and collaboration",
	},
	"amazon": {
		Name:       "Amazon",
		Style:      "behavioral questions anchored to the Leadership Principles plus practical problem solving",
		Domain:     "e-commerce, logistics, and cloud computing (AWS)",
		Priorities: "customer obsession, ownership, and bias for action",
	},
	"microsoft": {
		Name:       "Microsoft",
		Style:      "conversational interviews mixing design discussion with coding",
		Domain:     "developer tools, productivity software, and cloud platforms",
		Priorities: "growth mindset, technical depth, and cross-team collaboration",
	},
	"meta": {
		Name:       "Meta",
		Style:      "fast-paced interviews focused on impact and execution speed",
		Domain:     "social products, messaging, and large-scale distributed systems",
		Priorities: "moving fast, impact orientation, and systems thinking",
	},
	"apple": {
		Name:       "Apple",
		Style:      "detail-oriented interviews probing craftsmanship and secrecy-friendly collaboration",
		Domain:     "consumer hardware and tightly integrated software",
		Priorities: "attention to detail, product sense, and quality",
	},
	"netflix": {
		Name:       "Netflix",
		Style:      "candid culture-fit conversations alongside senior-level technical deep dives",
		Domain:     "streaming media and personalization at scale",
		Priorities: "independent judgment, candor, and high performance",
	},
	"tcs": {
		Name:       "TCS",
		Style:      "process-driven rounds covering aptitude, fundamentals, and HR fit",
		Domain:     "IT services and enterprise consulting",
		Priorities: "fundamentals, adaptability, and client orientation",
	},
	"infosys": {
		Name:       "Infosys",
		Style:      "structured rounds on programming basics and communication",
		Domain:     "IT services and digital transformation",
		Priorities: "learnability, fundamentals, and teamwork",
	},
}

// RoleKeywords maps a role to its competency keywords
var roles = map[string][]string{
	"backend":   {"APIs", "databases", "system design", "caching", "reliability"},
	"frontend":  {"JavaScript", "rendering performance", "accessibility", "state management", "responsive design"},
	"fullstack": {"APIs", "databases", "JavaScript frameworks", "deployment", "end-to-end ownership"},
	"devops":    {"CI/CD", "containers", "infrastructure as code", "monitoring", "incident response"},
	"data":      {"SQL", "data modeling", "pipelines", "statistics", "visualization"},
	"mobile":    {"native SDKs", "offline storage", "app lifecycle", "performance profiling", "release management"},
	"qa":        {"test design", "automation frameworks", "regression strategy", "bug triage", "coverage analysis"},
	"security":  {"threat modeling", "authentication", "encryption", "vulnerability assessment", "secure coding"},
	"machine":   {"model training", "feature engineering", "evaluation metrics", "deployment", "data quality"},
	"product":   {"prioritization", "user research", "metrics", "stakeholder management", "roadmapping"},
}

// genericRoleKeywords is used when no role entry matches
var genericRoleKeywords = []string{"core skills for the role", "problem solving", "communication", "collaboration"}

// LookupCompany finds the profile for a company name. Matching is
// case-insensitive; unknown companies get a generic profile carrying the
// caller's original name.
func LookupCompany(name string) CompanyProfile {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return genericCompany
	}
	if profile, ok := companies[strings.ToLower(trimmed)]; ok {
		return profile
	}
	profile := genericCompany
	profile.Name = trimmed
	return profile
}

// LookupRoleKeywords finds competency keywords for a role title.
// Case-insensitive, with substring fallback both ways so "DevOps Engineer II"
// matches the "devops" entry.
func LookupRoleKeywords(role string) []string {
	lowered := strings.ToLower(strings.TrimSpace(role))
	if lowered == "" {
		return genericRoleKeywords
	}
	if kws, ok := roles[lowered]; ok {
		return kws
	}
	for key, kws := range roles {
		if strings.Contains(lowered, key) || strings.Contains(key, lowered) {
			return kws
		}
	}
	return genericRoleKeywords
}
