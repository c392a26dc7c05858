// Package io provides JSON import and export for plugin dependency graphs.
//
// # JSON Format
//
//	{
//	  "nodes": [
//	    {"id": "app", "wave": 1},
//	    {"id": "auth", "wave": 0, "installed": true}
//	  ],
//	  "edges": [
//	    {"from": "app", "to": "auth"}
//	  ]
//	}
//
// An edge points from a plugin to a plugin it depends on. "wave" is the
// install wave computed by dag.DAG.Batches; "installed" marks packages that
// were already present when the graph was resolved.
//
// Use [ExportJSON] or [WriteJSON] to write a graph and [ImportJSON] or
// [ReadJSON] to read one back. Import validates the graph: duplicate node
// IDs, edges to unknown nodes and cycles are rejected.
package io
