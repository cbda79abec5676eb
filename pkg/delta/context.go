package delta

import "github.com/latticedb/lattice/pkg/schema"

type (
	// Context tracks the state of one command application: the stack of
	// current referrer scopes (used to qualify nested declarations and wire
	// backrefs), the declarative-mode flag, and the optional delta-recording
	// scratchpad consumed by the merge engine.
	Context struct {
		Registry *schema.Registry

		// Declarative makes missing `inherited` tags definition errors
		// rather than silently accepted overrides.
		Declarative bool

		// Recording enables the merge engine scratchpad: implicit merges
		// performed during finalize append structural delta nodes to the
		// current command.
		Recording bool

		stack []*Frame
	}

	// Frame is one referrer scope: the command being applied and the current
	// value of its object.
	Frame struct {
		Op  Command
		Obj *schema.Object
	}
)

// NewContext returns a context over the given registry.
func NewContext(reg *schema.Registry) *Context {
	return &Context{Registry: reg}
}

// Push enters a referrer scope.
func (c *Context) Push(f *Frame) { c.stack = append(c.stack, f) }

// Pop leaves the innermost referrer scope.
func (c *Context) Pop() {
	c.stack = c.stack[:len(c.stack)-1]
}

// Current returns the innermost referrer scope, or nil.
func (c *Context) Current() *Frame {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// finalizeOptions derives the merge engine options for this context.
func (c *Context) finalizeOptions() *schema.FinalizeOptions {
	opts := &schema.FinalizeOptions{Declarative: c.Declarative}
	if c.Recording {
		opts.Recorder = c
	}
	return opts
}

// RecordMerge implements schema.DeltaRecorder: the structural difference
// between a local declaration and its merged value is appended to the
// current command as a nested delta.
func (c *Context) RecordMerge(snap *schema.Snapshot, owner schema.Name, old, merged *schema.Object) {
	cur := c.Current()
	if cur == nil {
		return
	}
	d := Delta(c.Registry, snap, snap, old, merged)
	if d != nil && d.HasSubcommands() {
		cur.Op.Add(d)
	}
}
