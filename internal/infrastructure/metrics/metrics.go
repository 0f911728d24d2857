package metrics

import (
	"expvar"
)

// Propagation metrics.
var (
	updatesTotal    = new(expvar.Int)
	nodeFaultsTotal = new(expvar.Int)
	dataFanoutTotal = new(expvar.Int)
	execFanoutTotal = new(expvar.Int)
)

// Event loop metrics.
var (
	eventsPosted  = new(expvar.Int)
	eventsDropped = new(expvar.Int)
	loopPending   = new(expvar.Int)
)

// Store metrics (counters keyed by adapter name).
var (
	documentsSaved  = expvar.NewMap("nodeflow_documents_saved_total")
	documentsLoaded = expvar.NewMap("nodeflow_documents_loaded_total")
	storeEvictions  = expvar.NewMap("nodeflow_store_evictions_total")
)

func init() {
	expvar.Publish("nodeflow_updates_total", updatesTotal)
	expvar.Publish("nodeflow_node_faults_total", nodeFaultsTotal)
	expvar.Publish("nodeflow_data_fanout_total", dataFanoutTotal)
	expvar.Publish("nodeflow_exec_fanout_total", execFanoutTotal)
	expvar.Publish("nodeflow_events_posted_total", eventsPosted)
	expvar.Publish("nodeflow_events_dropped_total", eventsDropped)
	expvar.Publish("nodeflow_eventloop_pending", loopPending)
}

// Propagation helpers
func IncUpdates()           { updatesTotal.Add(1) }
func IncNodeFaults()        { nodeFaultsTotal.Add(1) }
func AddDataFanout(n int64) { dataFanoutTotal.Add(n) }
func AddExecFanout(n int64) { execFanoutTotal.Add(n) }

// Event loop helpers
func IncEventsPosted()     { eventsPosted.Add(1) }
func IncEventsDropped()    { eventsDropped.Add(1) }
func SetLoopPending(n int) { loopPending.Set(int64(n)) }

// Store helpers
func DocumentSaved(adapter string)         { documentsSaved.Add(adapter, 1) }
func DocumentLoaded(adapter string)        { documentsLoaded.Add(adapter, 1) }
func StoreEvicted(adapter string, n int64) { storeEvictions.Add(adapter, n) }
