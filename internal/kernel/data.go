package kernel

import (
	"sync"

	"github.com/termfx/nml/internal/unit"
)

// dataKey is the name Data registers itself under in a unit's custom
// data map.
const dataKey = "kernel.data"

// Data holds every kernel a unit has created so far, keyed by name.
// Kernels are created lazily on first reference, matching the
// original's "kernel created on demand, kept for the unit's lifetime"
// behavior.
type Data struct {
	mu      sync.Mutex
	kernels map[string]*Kernel
}

// Initialize installs an empty Data on u if one isn't already present.
// Safe to call more than once.
func Initialize(u *unit.Unit) {
	if u.HasData(dataKey) {
		return
	}
	u.SetData(dataKey, &Data{kernels: make(map[string]*Kernel)})
}

// WithKernel looks up (creating if necessary) the kernel named name on
// u, and invokes f with it.
func WithKernel(u *unit.Unit, name string, f func(u *unit.Unit, k *Kernel)) {
	unit.WithData[Data](u, dataKey, func(d *Data) struct{} {
		d.mu.Lock()
		k, ok := d.kernels[name]
		if !ok {
			k = New(name)
			d.kernels[name] = k
		}
		d.mu.Unlock()
		f(u, k)
		return struct{}{}
	})
}
