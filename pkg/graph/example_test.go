package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/regionsync/pkg/graph"
)

func ExampleReadDocument() {
	const input = `{
	  "network": {
	    "nodes": [{"id": "a"}, {"id": "b"}],
	    "links": [{"id": "ab", "source": "a", "target": "b"}]
	  },
	  "instances": [{
	    "id": "I1",
	    "regions": [{"id": "R1"}],
	    "nodes": [
	      {"id": "a:1", "backing": "a", "region": "R1"},
	      {"id": "b:1", "backing": "b", "region": "R1"}
	    ],
	    "links": [{"id": "ab:1", "backing": "ab", "source": "a:1", "target": "b:1"}]
	  }]
	}`

	doc, err := graph.ReadDocument(strings.NewReader(input))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	m, _ := doc.Model()
	in, _ := m.Instance("I1")
	fmt.Println("root links:", m.Root.LinkIDs())
	fmt.Println("occurrences of a:", in.Occurrences("a"))
	fmt.Println("single occurrence:", in.SingleOccurrence())
	// Output:
	// root links: [ab]
	// occurrences of a: [a:1]
	// single occurrence: true
}
