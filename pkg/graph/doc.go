// Package graph provides the serialization format for network diagram
// projects: the root network, its instances and their layouts.
//
// This package defines the canonical wire format used for JSON files, API
// requests and responses, and cache entries.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [Document]: serialization type (this package)
//   - pkg/network.Model: the root network and its instances
//   - pkg/layout.Layout: positions and link geometry per diagram
//
// Use [FromModel] and [Document.Model] to convert between them.
//
// # Document Format
//
//	{
//	  "network": {
//	    "nodes": [{"id": "a"}, {"id": "b"}],
//	    "links": [{"id": "ab", "source": "a", "target": "b"}]
//	  },
//	  "instances": [{
//	    "id": "I1",
//	    "regions": [{"id": "R1"}],
//	    "nodes": [{"id": "a:1", "backing": "a", "region": "R1"}],
//	    "links": []
//	  }],
//	  "layouts": {"root": {...}, "I1": {...}}
//	}
//
// The root network's layout is stored under [RootLayout]; every other layout
// is stored under its instance ID.
//
// Common operations:
//
//	doc, _ := graph.ReadDocumentFile("project.json")
//	model, _ := doc.Model()
//	graph.WriteDocumentFile(doc, "out.json")
//
// Single layouts use [ReadLayoutFile] and [WriteLayoutFile].
package graph
