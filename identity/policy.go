package identity

import "fmt"

// Policy is satisfied by a user holding any of Roles.
type Policy struct {
	Name  string
	Roles []string
}

func (p Policy) allows(u User) bool {
	for _, r := range p.Roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// DefaultPolicies are registered by NewAuthorizer when none are given.
func DefaultPolicies() []Policy {
	return []Policy{{Name: PolicyCanPurge, Roles: []string{RoleAdministrator}}}
}

// Authorizer evaluates named policies.
type Authorizer struct {
	policies map[string]Policy
}

func NewAuthorizer(policies ...Policy) *Authorizer {
	if len(policies) == 0 {
		policies = DefaultPolicies()
	}
	a := &Authorizer{policies: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		a.policies[p.Name] = p
	}
	return a
}

func (a *Authorizer) Policy(name string) (Policy, bool) {
	p, ok := a.policies[name]
	return p, ok
}

// Allows reports whether u satisfies the named policy.
func (a *Authorizer) Allows(u User, policy string) (bool, error) {
	p, ok := a.policies[policy]
	if !ok {
		return false, fmt.Errorf("%w %q", ErrUnknownPolicy, policy)
	}
	return p.allows(u), nil
}
