package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Registry provides access to prompt definitions.
type Registry interface {
	Get(slug string) (*Prompt, error)
	List() []*Prompt
}

// InMemoryRegistry stores prompts by slug.
type InMemoryRegistry struct {
	prompts map[string]*Prompt
}

// NewRegistry builds a registry. Duplicate slugs are an error.
func NewRegistry(prompts []*Prompt) (*InMemoryRegistry, error) {
	reg := &InMemoryRegistry{prompts: make(map[string]*Prompt, len(prompts))}
	for _, p := range prompts {
		if p == nil {
			continue
		}
		slug := strings.TrimSpace(p.Config.Slug)
		if slug == "" {
			return nil, fmt.Errorf("prompt %s missing slug", p.Source)
		}
		if _, ok := reg.prompts[slug]; ok {
			return nil, fmt.Errorf("duplicate prompt slug: %s", slug)
		}
		reg.prompts[slug] = p
	}
	return reg, nil
}

// Override replaces or adds prompts by slug.
func (r *InMemoryRegistry) Override(prompts []*Prompt) {
	for _, p := range prompts {
		if p == nil || strings.TrimSpace(p.Config.Slug) == "" {
			continue
		}
		r.prompts[strings.TrimSpace(p.Config.Slug)] = p
	}
}

func (r *InMemoryRegistry) Get(slug string) (*Prompt, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry not configured")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("prompt slug is required")
	}
	p, ok := r.prompts[slug]
	if !ok {
		return nil, fmt.Errorf("prompt %q not found", slug)
	}
	return p, nil
}

// List returns prompts sorted by slug.
func (r *InMemoryRegistry) List() []*Prompt {
	if r == nil {
		return nil
	}
	slugs := make([]string, 0, len(r.prompts))
	for slug := range r.prompts {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	out := make([]*Prompt, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, r.prompts[slug])
	}
	return out
}
