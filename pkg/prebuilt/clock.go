package prebuilt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nodeflow/nodeflow/internal/core/eventloop"
	"github.com/nodeflow/nodeflow/internal/core/node"
	"github.com/nodeflow/nodeflow/internal/core/port"
	"github.com/nodeflow/nodeflow/internal/core/worker"
)

// clockWorker pairs a node-owned worker with its ticker cancel so both the
// "stop" action and node removal tear the clock down.
type clockWorker struct {
	w        *worker.Worker
	stopTick func()
	forget   func()
}

func (c *clockWorker) Stop(ctx context.Context) error {
	c.stopTick()
	c.forget()
	return c.w.Stop(ctx)
}

// Clock fires its exec output at the interval (in milliseconds) given by its
// widget. Ticks run on a node-owned worker and re-enter the flow through the
// event loop, so clock callbacks never race with other updates. The context
// menu offers "start" and "stop".
func Clock(loop *eventloop.Loop) *node.Kind {
	var mu sync.Mutex
	running := make(map[string]*clockWorker)

	stop := func(n *node.Instance) error {
		mu.Lock()
		cw := running[n.ID()]
		mu.Unlock()
		if cw == nil {
			return nil
		}
		return cw.Stop(context.Background())
	}

	start := func(n *node.Instance, _ any) error {
		mu.Lock()
		_, already := running[n.ID()]
		mu.Unlock()
		if already {
			return nil
		}

		raw, err := n.Input(0)
		if err != nil {
			return err
		}
		ms, ok := asInt(raw)
		if !ok || ms <= 0 {
			return fmt.Errorf("invalid clock interval: %v", raw)
		}

		w := worker.New(loop, nil, 16)
		id := n.ID()
		stopTick := w.Ticker(time.Duration(ms)*time.Millisecond, func(ctx context.Context) eventloop.Event {
			return func() {
				if n.Phase() != node.PhaseReady {
					return
				}
				_ = n.ExecOutput(0)
			}
		})
		cw := &clockWorker{w: w, stopTick: stopTick, forget: func() {
			mu.Lock()
			delete(running, id)
			mu.Unlock()
		}}

		mu.Lock()
		running[id] = cw
		mu.Unlock()
		n.AddWorker(cw)
		return nil
	}

	return &node.Kind{
		Name:        "std.clock",
		Description: "fires an exec pulse at a fixed interval",
		Inputs: []node.PortTemplate{
			{Kind: port.KindData, Label: "interval_ms", WidgetType: port.WidgetTypeValue, WidgetDefault: 1000},
		},
		Outputs: []node.PortTemplate{
			{Kind: port.KindExec, Label: "tick"},
		},
		Actions: map[string]node.ActionFunc{
			"start": start,
			"stop": func(n *node.Instance, _ any) error {
				return stop(n)
			},
		},
		Init: func(n *node.Instance) error {
			n.SetSpecialAction("start", &node.Action{Method: "start"})
			n.SetSpecialAction("stop", &node.Action{Method: "stop"})
			return nil
		},
	}
}
