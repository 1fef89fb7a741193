package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Resolver handles {{name}} interpolation with thread-safe access to variables
// and captures. A name resolves to a capture taken by an earlier check first,
// then to a variable. {{$NAME}} reads the environment through the lookup.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	captures  map[string]any
	lookup    LookupFunc
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]any),
		captures:  make(map[string]any),
		lookup:    os.LookupEnv,
	}
}

// SetLookup replaces the environment lookup used for {{$NAME}} references.
func (r *Resolver) SetLookup(fn LookupFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fn == nil {
		fn = os.LookupEnv
	}
	r.lookup = fn
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., unresolved variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

// SetCapture stores a value under both "check.name" and the bare name, so the
// most recent capture wins for the short form.
func (r *Resolver) SetCapture(checkName, captureName string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures[checkName+"."+captureName] = value
	r.captures[captureName] = value
}

func (r *Resolver) GetCapture(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.captures[name]
	return v, ok
}

// value resolves one reference without the surrounding braces.
func (r *Resolver) value(expr string) (any, bool) {
	if strings.HasPrefix(expr, "$") {
		r.mu.RLock()
		lookup := r.lookup
		r.mu.RUnlock()
		if val, ok := lookup(expr[1:]); ok && val != "" {
			return val, true
		}
		return nil, false
	}
	return r.GetVariable(expr)
}

// Resolve replaces every reference in input. Unresolved references are left
// as they are and reported through the warn function.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.value(expr); ok {
			return fmt.Sprintf("%v", val)
		}
		if strings.HasPrefix(expr, "$") {
			r.warn("unresolved environment variable: %s", expr)
		} else {
			r.warn("unresolved variable: %s", expr)
		}
		return match
	})
}

// ResolveValue resolves strings nested in v. A string that is exactly one
// reference takes the referenced value with its type, so a captured number
// stays a number.
func (r *Resolver) ResolveValue(v any) any {
	switch val := v.(type) {
	case string:
		if m := variablePattern.FindStringSubmatchIndex(val); m != nil && m[0] == 0 && m[1] == len(val) {
			if resolved, ok := r.value(strings.TrimSpace(val[m[2]:m[3]])); ok {
				return resolved
			}
		}
		return r.Resolve(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.ResolveValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.ResolveValue(item)
		}
		return out
	default:
		return v
	}
}

// Unresolved returns the references in input that do not resolve, in order.
func (r *Resolver) Unresolved(input string) []string {
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if _, ok := r.value(expr); !ok {
			names = append(names, expr)
		}
	}
	return names
}

func (r *Resolver) HasVariable(name string) bool {
	_, ok := r.GetVariable(name)
	return ok
}

func (r *Resolver) GetVariable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.captures[name]; ok {
		return v, true
	}
	if v, ok := r.variables[name]; ok {
		return v, true
	}
	return nil, false
}

// Clone copies variables, captures and hooks into an independent resolver.
func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewResolver()
	clone.lookup = r.lookup
	clone.warnFunc = r.warnFunc
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	for k, v := range r.captures {
		clone.captures[k] = v
	}
	return clone
}
