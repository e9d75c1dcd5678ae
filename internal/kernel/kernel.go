// Package kernel implements the scripting bridge: embedded Go scripts
// evaluated by a yaegi interpreter, either inline during parsing (a
// host-bound function adds content at the current cursor position) or
// as a PostProcess element that re-evaluates after the whole unit has
// parsed. A Context is always passed explicitly into host
// bindings — never stashed in a goroutine-local or package-level
// variable — since a unit's scripts may run on whatever goroutine the
// compiler's worker pool schedules them on.
package kernel

import (
	"fmt"
	"sync"

	"github.com/cogentcore/yaegi/interp"
	"github.com/cogentcore/yaegi/stdlib"

	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// EvalKind selects how a script's evaluation result is used.
type EvalKind int

const (
	// EvalNone discards the result; the script ran for its side
	// effects (calling host-bound functions) alone.
	EvalNone EvalKind = iota
	// EvalString takes the result as a string and emits it as plain
	// text.
	EvalString
	// EvalStringParse takes the result as a string and re-parses it as
	// nml content, in a fresh child scope.
	EvalStringParse
)

// ParseEvalKind parses the rule-level sigil that selects an EvalKind:
// empty for None, `'` for String, `!` for StringParse.
func ParseEvalKind(sigil string) (EvalKind, error) {
	switch sigil {
	case "":
		return EvalNone, nil
	case "'":
		return EvalString, nil
	case "!":
		return EvalStringParse, nil
	default:
		return 0, fmt.Errorf("kernel: invalid evaluation sigil %q", sigil)
	}
}

// Context is passed explicitly to every host-bound function a script
// calls, giving it access to the unit and the location the script was
// declared at, without relying on ambient/goroutine-local state.
type Context struct {
	Unit     *unit.Unit
	Location source.Token
	Kernel   *Kernel
}

// Kernel wraps one yaegi interpreter instance and the host bindings
// registered on it. Kernels are created lazily, one per name, and
// stored in the owning unit's custom data (see Data).
type Kernel struct {
	name string

	mu   sync.Mutex
	intp *interp.Interpreter
}

// New creates a kernel named name with a fresh yaegi interpreter
// preloaded with the Go standard library symbols.
func New(name string) *Kernel {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		panic(fmt.Sprintf("kernel: failed to load stdlib symbols: %v", err))
	}
	return &Kernel{name: name, intp: i}
}

// Name returns the kernel's name, as referenced by the header line of
// `@<name ... >@` script blocks.
func (k *Kernel) Name() string { return k.name }

// Bind registers a host function under path (e.g. "nml/host.AddText")
// so scripts run by this kernel can call it. Bind must be called
// before any script runs on this kernel; yaegi resolves symbols once
// at Eval time.
func (k *Kernel) Bind(pkgPath, pkgName string, symbols map[string]interface{}) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.intp.Use(interp.Exports{
		pkgPath + "/" + pkgName: symbols,
	})
}

// RunWithContext evaluates src on this kernel's interpreter. ctx and
// name are not handed to the interpreter; a host binding sees only what
// it captured when it was registered with Bind. Only one script runs on
// a given kernel at a time — the interpreter itself isn't safe for
// concurrent Eval calls.
func (k *Kernel) RunWithContext(ctx *Context, src, name string, kind EvalKind) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if kind == EvalNone {
		_, err := k.intp.Eval(src)
		return "", err
	}

	val, err := k.intp.Eval(src)
	if err != nil {
		return "", err
	}
	if !val.IsValid() {
		return "", nil
	}
	result, ok := val.Interface().(string)
	if !ok {
		return fmt.Sprintf("%v", val.Interface()), nil
	}
	return result, nil
}
