package model

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Workitem is the narrow view of a workitem the manager needs to resolve a
// model: its declared version and, as a fallback, its workflow group. The
// kernel's itemcollection.ItemCollection satisfies this directly.
type Workitem interface {
	GetItemValueString(name string) string
}

// Manager owns the set of BPMN models indexed by version. It is
// effectively immutable after AddModel: callers needing to mutate a live
// model must build a new Model and call AddModel/RemoveModel, copy-on-write.
type Manager struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{models: make(map[string]*Model)}
}

// AddModel registers or replaces a model under its own Definition.Version.
func (mgr *Manager) AddModel(m *Model) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.models = cloneModelIndex(mgr.models)
	mgr.models[m.Definition.Version] = m
}

// RemoveModel unregisters the model for version, if present.
func (mgr *Manager) RemoveModel(version string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if _, ok := mgr.models[version]; !ok {
		return
	}
	mgr.models = cloneModelIndex(mgr.models)
	delete(mgr.models, version)
}

func cloneModelIndex(in map[string]*Model) map[string]*Model {
	out := make(map[string]*Model, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// GetModel resolves a model by exact version match.
func (mgr *Manager) GetModel(version string) (*Model, error) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	m, ok := mgr.models[version]
	if !ok {
		return nil, ErrUndefinedModel(version)
	}
	return m, nil
}

// isRegexPattern mirrors the model version dialect: a pattern starts with
// '(' or '^'.
func isRegexPattern(version string) bool {
	return strings.HasPrefix(version, "(") || strings.HasPrefix(version, "^")
}

// GetModelByWorkitem resolves a model version three ways, in order:
//  1. if $modelversion looks like a regex, pick the highest-sorted version
//     whose string matches it;
//  2. else an exact match on $modelversion;
//  3. else, if $workflowgroup is set, the highest version whose
//     Definition.Groups contains it.
func (mgr *Manager) GetModelByWorkitem(w Workitem) (*Model, error) {
	version := w.GetItemValueString("$modelversion")

	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	if version != "" && isRegexPattern(version) {
		re, err := regexp.Compile(version)
		if err != nil {
			return nil, ErrInvalidModel(version, err)
		}
		var matches []string
		for v := range mgr.models {
			if re.MatchString(v) {
				matches = append(matches, v)
			}
		}
		if len(matches) == 0 {
			return nil, ErrUndefinedModel(version)
		}
		sort.Strings(matches)
		return mgr.models[matches[len(matches)-1]], nil
	}

	if version != "" {
		if m, ok := mgr.models[version]; ok {
			return m, nil
		}
	}

	group := w.GetItemValueString("$workflowgroup")
	if group == "" {
		return nil, ErrUndefinedModel(version)
	}
	var matches []string
	for v, m := range mgr.models {
		for _, g := range m.Definition.Groups {
			if g == group {
				matches = append(matches, v)
				break
			}
		}
	}
	if len(matches) == 0 {
		return nil, ErrUndefinedModel(version)
	}
	sort.Strings(matches)
	return mgr.models[matches[len(matches)-1]], nil
}
