// Package plugin runs Lua scripts that render node types the built-in
// adapters do not know.
//
// A script defines a global function
//
//	function render_embed(type, source, attrs)
//	  if type == "mention" then return "@" .. source end
//	end
//
// which receives the node type, its embed source (or text content) and its
// attributes as a table, and returns the rendered string. Returning nil
// renders nothing.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"pkt.systems/deltaf/tree"
)

// FuncName is the global the script must define.
const FuncName = "render_embed"

// DefaultTimeout bounds a single call into the script.
const DefaultTimeout = 2 * time.Second

var (
	// ErrNoFunction is returned by Load when the script does not define
	// FuncName.
	ErrNoFunction = errors.New("plugin: " + FuncName + " is not defined")
	// ErrClosed is returned by calls on a closed plugin.
	ErrClosed = errors.New("plugin: closed")
)

// Option configures a Plugin.
type Option func(*Plugin)

// WithTimeout sets the per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Plugin) {
		p.timeout = d
	}
}

// Plugin is a loaded script. gopher-lua states are single threaded, so
// calls are serialized.
type Plugin struct {
	mu      sync.Mutex
	L       *lua.LState
	fn      *lua.LFunction
	timeout time.Duration
	closed  bool
}

// Load runs the script at path and returns the plugin.
func Load(path string, opts ...Option) (*Plugin, error) {
	return load(func(L *lua.LState) error { return L.DoFile(path) }, opts)
}

// LoadString is Load for in-memory source.
func LoadString(code string, opts ...Option) (*Plugin, error) {
	return load(func(L *lua.LState) error { return L.DoString(code) }, opts)
}

func load(run func(*lua.LState) error, opts []Option) (*Plugin, error) {
	p := &Plugin{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(p)
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	if err := run(L); err != nil {
		L.Close()
		return nil, fmt.Errorf("plugin: load: %w", err)
	}
	fn, ok := L.GetGlobal(FuncName).(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, ErrNoFunction
	}
	p.L, p.fn = L, fn
	return p, nil
}

// openSafeLibraries leaves out io, os, debug and package.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Close releases the Lua state.
func (p *Plugin) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.L.Close()
	}
}

// Render calls the script for one node.
func (p *Plugin) Render(typ, source string, attrs map[string]any) (out string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrClosed
	}
	if p.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.L.SetContext(ctx)
		defer p.L.RemoveContext()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin: lua panic: %v", r)
		}
	}()

	if err := p.L.CallByParam(lua.P{Fn: p.fn, NRet: 1, Protect: true},
		lua.LString(typ), lua.LString(source), toLua(p.L, attrs)); err != nil {
		return "", fmt.Errorf("plugin: %s(%q): %w", FuncName, typ, err)
	}
	ret := p.L.Get(-1)
	p.L.Pop(1)
	switch v := ret.(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		return v.String(), nil
	}
	return "", fmt.Errorf("plugin: %s(%q) returned %s, want string or nil", FuncName, typ, ret.Type())
}

// Unknown renders n. It matches the Unknown hook of the string adapters.
func (p *Plugin) Unknown(n *tree.Node) (string, error) {
	source := n.Source()
	if source == "" && len(n.Children) > 0 {
		source = n.TextContent()
	}
	return p.Render(n.Type, source, n.Attributes)
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []any:
		t := L.NewTable()
		for _, e := range val {
			t.Append(toLua(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLua(L, val[k]))
		}
		return t
	case tree.Attributes:
		return toLua(L, map[string]any(val))
	}
	return lua.LString(fmt.Sprint(v))
}
