// Package scopes holds the fixed registry of capability scopes and the
// subset check used to gate operations on a token's granted scopes.
package scopes

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scope is a named capability, e.g. "read:photos".
type Scope string

const (
	OpenID            Scope = "openid"
	Profile           Scope = "profile"
	OfflineAccess     Scope = "offline_access"
	Email             Scope = "email"
	ReadSubscriptions Scope = "read:subscriptions"
	ReadPhotos        Scope = "read:photos"
	WritePhotos       Scope = "write:photos"
	ReadVideos        Scope = "read:videos"
	ReadLinks         Scope = "read:links"
	WriteLinks        Scope = "write:links"
	ReadSupport       Scope = "read:support"
	WriteSupport      Scope = "write:support"
)

var (
	ErrInsufficientScope = errors.New("scopes: insufficient scope")
	ErrUnknownScope      = errors.New("scopes: unknown scope")
)

//go:embed registry.yaml
var defaultRegistry []byte

// Definition describes one registered scope.
type Definition struct {
	Name        Scope  `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Registry is the immutable set of known scopes. Load it once at start and
// pass it by reference.
type Registry struct {
	defs  []Definition
	known map[Scope]struct{}
}

// Default parses the embedded registry.
func Default() (*Registry, error) {
	return Load(strings.NewReader(string(defaultRegistry)))
}

// Load parses a YAML registry document.
func Load(r io.Reader) (*Registry, error) {
	var doc struct {
		Scopes []Definition `yaml:"scopes"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("scopes: decode registry: %w", err)
	}

	reg := &Registry{known: make(map[Scope]struct{}, len(doc.Scopes))}
	for _, d := range doc.Scopes {
		if d.Name == "" || strings.ContainsAny(string(d.Name), " \t\n") {
			return nil, fmt.Errorf("scopes: invalid scope name %q", d.Name)
		}
		if _, dup := reg.known[d.Name]; dup {
			return nil, fmt.Errorf("scopes: duplicate scope %q", d.Name)
		}
		reg.known[d.Name] = struct{}{}
		reg.defs = append(reg.defs, d)
	}
	if len(reg.defs) == 0 {
		return nil, errors.New("scopes: empty registry")
	}
	return reg, nil
}

// Known reports whether s is registered.
func (r *Registry) Known(s Scope) bool {
	_, ok := r.known[s]
	return ok
}

// All returns a copy of the registered definitions in file order.
func (r *Registry) All() []Definition {
	return slices.Clone(r.defs)
}

// Validate fails with ErrUnknownScope if any scope in the space-delimited
// list is not registered.
func (r *Registry) Validate(scope string) error {
	for _, s := range strings.Fields(scope) {
		if !r.Known(Scope(s)) {
			return fmt.Errorf("%w: %q", ErrUnknownScope, s)
		}
	}
	return nil
}

// Filter drops unregistered and repeated scopes from a space-delimited list,
// keeping the order of first appearance. Use it for scopes asserted by a
// third party before they are copied into an issued token.
func (r *Registry) Filter(scope string) (kept string, dropped []string) {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range strings.Fields(scope) {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if !r.Known(Scope(s)) {
			dropped = append(dropped, s)
			continue
		}
		out = append(out, s)
	}
	return strings.Join(out, " "), dropped
}

// Set is an unordered set of scopes.
type Set map[Scope]struct{}

// Parse splits a space-delimited scope string into a Set.
func Parse(granted string) Set {
	fields := strings.Fields(granted)
	s := make(Set, len(fields))
	for _, f := range fields {
		s[Scope(f)] = struct{}{}
	}
	return s
}

// Has reports whether x is in the set.
func (s Set) Has(x Scope) bool {
	_, ok := s[x]
	return ok
}

// Strings returns the set sorted, for stable diagnostics.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, string(k))
	}
	slices.Sort(out)
	return out
}

// InsufficientScopeError reports a failed authorization with both sides of
// the comparison.
type InsufficientScopeError struct {
	Required []string `json:"required"`
	Granted  []string `json:"provided"`
	Missing  []string `json:"missing"`
}

func (e *InsufficientScopeError) Error() string {
	return fmt.Sprintf("scopes: insufficient scope: missing %s", strings.Join(e.Missing, " "))
}

func (e *InsufficientScopeError) Is(target error) bool {
	return target == ErrInsufficientScope
}

// Authorize succeeds iff every required scope appears in the whitespace
// separated granted string. On failure it returns *InsufficientScopeError.
func Authorize(granted string, required ...Scope) error {
	have := Parse(granted)

	var missing []string
	for _, r := range required {
		if !have.Has(r) {
			missing = append(missing, string(r))
		}
	}
	if len(missing) == 0 {
		return nil
	}

	req := make([]string, len(required))
	for i, r := range required {
		req[i] = string(r)
	}
	return &InsufficientScopeError{
		Required: req,
		Granted:  have.Strings(),
		Missing:  missing,
	}
}
