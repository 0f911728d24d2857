package prebuilt

import (
	"io"
	"os"

	"github.com/nodeflow/nodeflow/internal/core/eventloop"
	"github.com/nodeflow/nodeflow/internal/core/node"
)

// Register adds the standard kinds to a registry. loop drives clock nodes;
// out receives print output (os.Stdout when nil).
func Register(reg *node.Registry, loop *eventloop.Loop, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}
	kinds := []*node.Kind{
		Const(),
		Add(),
		Print(out),
		Gate(),
		Counter(),
		Clock(loop),
	}
	for _, k := range kinds {
		if err := reg.Register(k); err != nil {
			return err
		}
	}
	return nil
}
