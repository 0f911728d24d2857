package main

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// promMetricsHandler renders expvar-published metrics in Prometheus text
// exposition format. Known nodeflow metrics get proper TYPE/HELP metadata;
// other numeric expvar vars fall back to a minimal untyped rendering.
// nolint:funlen,gocognit // Straightforward formatter; long but simple
func promMetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	type meta struct {
		typ, help string
		isMap     bool
		label     string
	}
	metas := map[string]meta{
		"nodeflow_updates_total":         {typ: "counter", help: "Node updates executed"},
		"nodeflow_node_faults_total":     {typ: "counter", help: "Node updates that returned an error or panicked"},
		"nodeflow_data_fanout_total":     {typ: "counter", help: "Downstream updates triggered by data output changes"},
		"nodeflow_exec_fanout_total":     {typ: "counter", help: "Downstream updates triggered by exec output signals"},
		"nodeflow_events_posted_total":   {typ: "counter", help: "Events accepted by the flow event loop"},
		"nodeflow_events_dropped_total":  {typ: "counter", help: "Events rejected by the flow event loop"},
		"nodeflow_eventloop_pending":     {typ: "gauge", help: "Events currently queued on the flow event loop"},
		"nodeflow_documents_saved_total": {typ: "counter", help: "Documents saved per store adapter", isMap: true, label: "adapter"},
		"nodeflow_documents_loaded_total": {
			typ: "counter", help: "Documents loaded per store adapter", isMap: true, label: "adapter"},
		"nodeflow_store_evictions_total": {
			typ: "counter", help: "Documents evicted per store adapter", isMap: true, label: "adapter"},
	}

	varNames := make([]string, 0, 64)
	expvar.Do(func(kv expvar.KeyValue) {
		varNames = append(varNames, kv.Key)
	})
	sort.Strings(varNames)

	for _, name := range varNames {
		v := expvar.Get(name)
		m, known := metas[name]
		if !known {
			if iv, ok := v.(*expvar.Int); ok {
				_, _ = fmt.Fprintf(w, "# TYPE %s gauge\n", name)
				_, _ = fmt.Fprintf(w, "%s %s\n", name, iv.String())
			}
			continue
		}
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, sanitizeHelp(m.help))
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, m.typ)
		if m.isMap {
			mp, ok := v.(*expvar.Map)
			if !ok {
				continue
			}
			sub := make([]expvar.KeyValue, 0, 8)
			mp.Do(func(kv expvar.KeyValue) { sub = append(sub, kv) })
			sort.Slice(sub, func(i, j int) bool { return sub[i].Key < sub[j].Key })
			for _, kv := range sub {
				_, _ = fmt.Fprintf(w, "%s{%s=\"%s\"} %s\n", name, m.label, escapeLabel(kv.Key), kv.Value.String())
			}
			continue
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", name, v.String())
	}
}

func sanitizeHelp(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
