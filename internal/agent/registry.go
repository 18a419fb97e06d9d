package agent

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds the persona identities loadable by id. Identities are
// read-only configuration; the registry preserves file declaration order.
type Registry struct {
	identities map[string]Identity
	order      []string
}

type registryFile struct {
	Agents []Identity `yaml:"agents"`
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{identities: make(map[string]Identity)}
}

// LoadRegistry reads a YAML persona registry of the form:
//
//	agents:
//	  - id: ConservativeArchitect
//	    system: ...
//	    style: architecture
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse agent registry: %w", err)
	}

	reg := NewRegistry()
	for _, id := range file.Agents {
		if id.ID == "" {
			return nil, fmt.Errorf("agent registry %s contains an entry without an id", path)
		}
		reg.Add(id)
	}
	return reg, nil
}

// Add registers an identity, replacing any previous one with the same id.
func (r *Registry) Add(identity Identity) {
	if identity.Style == "" {
		identity.Style = DefaultStyle
	}
	if _, exists := r.identities[identity.ID]; !exists {
		r.order = append(r.order, identity.ID)
	}
	r.identities[identity.ID] = identity
}

// Get returns the identity for id.
func (r *Registry) Get(id string) (Identity, bool) {
	identity, ok := r.identities[id]
	return identity, ok
}

// IDs returns the registered ids in declaration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ParseAdHoc parses an ad-hoc persona spec of the form "Name:system prompt".
func ParseAdHoc(spec string) (Identity, error) {
	name, system, ok := strings.Cut(spec, ":")
	if !ok {
		return Identity{}, fmt.Errorf("ad-hoc role %q must look like 'Name:system prompt text'", spec)
	}
	return Identity{ID: name, System: strings.TrimSpace(system), Style: DefaultStyle}, nil
}
