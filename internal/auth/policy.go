package auth

import (
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/donor-service/internal/domain"
)

// Resources checked by the HTTP layer.
const (
	ResourceDashboardRead      = "dashboard/read"
	ResourceDonorsRead         = "donors/read"
	ResourceDonorsWrite        = "donors/write"
	ResourceOrganizationsRead  = "organizations/read"
	ResourceOrganizationsWrite = "organizations/write"
	ResourceTransactionsRead   = "transactions/read"
	ResourceTransactionsWrite  = "transactions/write"
	ResourceAdminsWrite        = "admins/write"
	ResourceDebugRead          = "debug/read"
	ResourceSelfRead           = "self/read"
	ResourceSelfWrite          = "self/write"
	ResourcePaymentsLink       = "payments/link"
)

// Policy is a deny-by-default allow-list of resource patterns per role.
type Policy struct {
	rules map[domain.Role][]string
}

type policyDocument struct {
	Roles map[string][]string `yaml:"roles"`
}

// DefaultPolicy returns the built-in rules.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(map[domain.Role][]string{
		domain.RoleSuperAdmin: {"**"},
		domain.RoleAdmin: {
			"self/*",
			ResourceDashboardRead,
			"donors/*",
			"organizations/*",
			"transactions/*",
		},
		domain.RoleManager: {
			"self/*",
			ResourceDashboardRead,
			ResourceDonorsRead,
			ResourceOrganizationsRead,
			ResourceTransactionsRead,
		},
		domain.RoleDonor: {
			"self/*",
			ResourceOrganizationsRead,
			ResourcePaymentsLink,
		},
	})
	if err != nil {
		panic(err)
	}
	return p
}

// NewPolicy validates the patterns and builds a policy.
func NewPolicy(rules map[domain.Role][]string) (*Policy, error) {
	out := make(map[domain.Role][]string, len(rules))
	for role, patterns := range rules {
		if !role.Valid() {
			return nil, fmt.Errorf("policy: unknown role %q", role)
		}
		for _, pattern := range patterns {
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("policy: invalid pattern %q for role %s", pattern, role)
			}
		}
		out[role] = append([]string{}, patterns...)
	}
	return &Policy{rules: out}, nil
}

// ParsePolicy reads a YAML policy document:
//
//	roles:
//	  ADMIN: ["donors/*", "dashboard/read"]
func ParsePolicy(data []byte) (*Policy, error) {
	var doc policyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("policy: decode: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("policy: no roles defined")
	}
	rules := make(map[domain.Role][]string, len(doc.Roles))
	for raw, patterns := range doc.Roles {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
		rules[role] = patterns
	}
	return NewPolicy(rules)
}

// LoadPolicyFile reads and parses a policy file.
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}
	return ParsePolicy(data)
}

// Allowed reports whether role may access resource.
func (p *Policy) Allowed(role domain.Role, resource string) bool {
	if p == nil || resource == "" || !role.Valid() {
		return false
	}
	for _, pattern := range p.rules[role] {
		if ok, err := doublestar.Match(pattern, resource); err == nil && ok {
			return true
		}
	}
	return false
}

// Rules returns a copy of the patterns per role, sorted for display.
func (p *Policy) Rules() map[domain.Role][]string {
	out := make(map[domain.Role][]string, len(p.rules))
	for role, patterns := range p.rules {
		cp := append([]string{}, patterns...)
		sort.Strings(cp)
		out[role] = cp
	}
	return out
}

// PolicyStore holds the current policy and allows it to be swapped at runtime.
type PolicyStore struct {
	current atomic.Pointer[Policy]
}

// NewPolicyStore wraps an initial policy.
func NewPolicyStore(initial *Policy) *PolicyStore {
	s := &PolicyStore{}
	s.current.Store(initial)
	return s
}

// Allowed delegates to the current policy.
func (s *PolicyStore) Allowed(role domain.Role, resource string) bool {
	return s.current.Load().Allowed(role, resource)
}

// Swap replaces the active policy.
func (s *PolicyStore) Swap(p *Policy) {
	if p != nil {
		s.current.Store(p)
	}
}

// Current returns the active policy.
func (s *PolicyStore) Current() *Policy {
	return s.current.Load()
}
