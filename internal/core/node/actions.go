package node

import (
	"fmt"

	"github.com/nodeflow/nodeflow/internal/core/port"
)

// Action is a user-invocable entry in a node's menu: either an immediate
// behavior reference (Method plus optional Data) or a Submenu of further
// entries. The two cases are exclusive; IsSubmenu discriminates.
type Action struct {
	Method  string
	Data    any
	Submenu map[string]*Action
}

// IsSubmenu reports whether the action is a nested menu.
func (a *Action) IsSubmenu() bool { return a.Submenu != nil }

// Built-in behavior IDs available on every instance.
const (
	ActionRemove    = "remove"
	ActionExecInput = "exec_input"
)

// SetSpecialAction adds or replaces a special action entry.
func (n *Instance) SetSpecialAction(name string, a *Action) {
	n.actions[name] = a
}

// RemoveSpecialAction drops a special action entry.
func (n *Instance) RemoveSpecialAction(name string) {
	delete(n.actions, name)
}

// SpecialActions returns the instance's special action entries.
func (n *Instance) SpecialActions() map[string]*Action {
	out := make(map[string]*Action, len(n.actions))
	for k, v := range n.actions {
		out[k] = v
	}
	return out
}

// DefaultActions returns the entries every instance exposes: remove, plus one
// trigger entry per exec input.
func (n *Instance) DefaultActions() map[string]*Action {
	actions := map[string]*Action{
		"remove": {Method: ActionRemove},
	}
	for i, in := range n.inputs {
		if in.Kind() != port.KindExec {
			continue
		}
		actions[fmt.Sprintf("exec input %d", i)] = &Action{
			Method: ActionExecInput,
			Data:   map[string]interface{}{"input_index": i},
		}
	}
	return actions
}

// InvokeSpecialAction resolves and runs a special action entry addressed by
// its path through submenus.
func (n *Instance) InvokeSpecialAction(path ...string) error {
	if len(path) == 0 {
		return ErrActionNotFound
	}
	entries := n.actions
	for depth, name := range path {
		a, exists := entries[name]
		if !exists {
			return fmt.Errorf("action %q: %w", name, ErrActionNotFound)
		}
		if depth == len(path)-1 {
			if a.IsSubmenu() {
				return fmt.Errorf("action %q: %w", name, ErrNotSubmenu)
			}
			return n.invoke(a)
		}
		if !a.IsSubmenu() {
			return fmt.Errorf("action %q: %w", name, ErrNotSubmenu)
		}
		entries = a.Submenu
	}
	return ErrActionNotFound
}

// InvokeDefaultAction runs one of the built-in entries.
func (n *Instance) InvokeDefaultAction(name string) error {
	a, exists := n.DefaultActions()[name]
	if !exists {
		return fmt.Errorf("action %q: %w", name, ErrActionNotFound)
	}
	return n.invoke(a)
}

// invoke dispatches a leaf action: kind registry first, then built-ins.
// Dispatch is a plain synchronous call; cardinality is always exactly one
// handler per action.
func (n *Instance) invoke(a *Action) error {
	if fn, exists := n.kind.Actions[a.Method]; exists {
		return fn(n, a.Data)
	}
	switch a.Method {
	case ActionRemove:
		if n.onRemove == nil {
			return fmt.Errorf("%q: no remove handler installed: %w", a.Method, ErrActionNotResolved)
		}
		n.onRemove(n)
		return nil
	case ActionExecInput:
		idx, ok := inputIndexFromData(a.Data)
		if !ok {
			return fmt.Errorf("%q: malformed data: %w", a.Method, ErrActionNotResolved)
		}
		n.Update(idx)
		return nil
	}
	return fmt.Errorf("method %q: %w", a.Method, ErrActionNotResolved)
}

// resolvable reports whether a method name binds to a behavior on this
// instance, used when restoring persisted actions.
func (n *Instance) resolvable(method string) bool {
	if _, exists := n.kind.Actions[method]; exists {
		return true
	}
	return method == ActionRemove || method == ActionExecInput
}

// inputIndexFromData extracts the input index from an exec_input payload.
// Decoding widens numbers differently per codec (float64 from JSON, int64
// and narrower ints from msgpack), so every numeric width is accepted.
func inputIndexFromData(data any) (int, bool) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch v := m["input_index"].(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// SpecialActionsData converts the live action entries to their persisted
// form: method names as strings, data preserved as-is, submenus nested.
func (n *Instance) SpecialActionsData() map[string]interface{} {
	return actionsData(n.actions)
}

func actionsData(actions map[string]*Action) map[string]interface{} {
	out := make(map[string]interface{}, len(actions))
	for name, a := range actions {
		if a.IsSubmenu() {
			out[name] = actionsData(a.Submenu)
			continue
		}
		entry := map[string]interface{}{"method": a.Method}
		if a.Data != nil {
			entry["data"] = a.Data
		}
		out[name] = entry
	}
	return out
}

// SetSpecialActionsData restores action entries from their persisted form.
// An entry whose method name no longer resolves on this instance (the kind
// changed since the description was saved) is logged and skipped; the rest of
// the entries still load.
func (n *Instance) SetSpecialActionsData(data map[string]interface{}) {
	n.actions = n.actionsFromData(data)
}

func (n *Instance) actionsFromData(data map[string]interface{}) map[string]*Action {
	actions := make(map[string]*Action, len(data))
	for name, v := range data {
		entry, ok := v.(map[string]interface{})
		if !ok {
			n.logger.Warn("skipping malformed action entry", "action", name)
			continue
		}
		method, hasMethod := entry["method"].(string)
		if !hasMethod {
			sub := n.actionsFromData(entry)
			actions[name] = &Action{Submenu: sub}
			continue
		}
		if !n.resolvable(method) {
			n.logger.Warn("skipping unresolved action method", "action", name, "method", method)
			continue
		}
		actions[name] = &Action{Method: method, Data: entry["data"]}
	}
	return actions
}
