package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	rserrors "github.com/matzehuels/regionsync/pkg/errors"
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/graph"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/network"
	"github.com/matzehuels/regionsync/pkg/pipeline"
)

func testDoc() graph.Document {
	doc := graph.Document{
		Network: graph.Network{
			Nodes: []graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			Links: []graph.Link{
				{ID: "ab", Source: "a", Target: "b"},
				{ID: "bc", Source: "b", Target: "c"},
			},
		},
		Instances: []graph.Instance{{
			ID:      "I1",
			Regions: []graph.Region{{ID: "R1"}, {ID: "R2"}},
			Nodes: []network.InstanceNode{
				{ID: "a:1", Backing: "a", Region: "R1"},
				{ID: "b:1", Backing: "b", Region: "R1"},
				{ID: "c:1", Backing: "c", Region: "R2"},
			},
			Links: []network.InstanceLink{
				{ID: "ab:1", Backing: "ab", Source: "a:1", Target: "b:1"},
				{ID: "bc:1", Backing: "bc", Source: "b:1", Target: "c:1"},
			},
		}},
	}
	l := layout.New(graph.RootLayout)
	l.SetNode(layout.NodeProps{ID: "a", Location: geom.Pt(0, 0)})
	l.SetNode(layout.NodeProps{ID: "b", Location: geom.Pt(200, 0)})
	l.SetNode(layout.NodeProps{ID: "c", Location: geom.Pt(400, 0)})
	doc.SetLayout(graph.RootLayout, l)
	return doc
}

func newTestServer() *httptest.Server {
	logger := log.New(&bytes.Buffer{})
	return httptest.NewServer(New(pipeline.NewRunner(nil, nil, logger), logger).Handler())
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	for _, path := range []string{"/healthz", "/version"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("GET %s content type = %q", path, ct)
		}
	}
}

func TestSync(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv.URL+"/v1/sync", SyncRequest{
		Document: testDoc(),
		Options:  pipeline.Options{Instance: "I1", Strategy: "direct-copy"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got Response
	decodeBody(t, resp, &got)
	if got.Target != "I1" {
		t.Errorf("Target = %q, want I1", got.Target)
	}
	l, ok := got.Document.Layout("I1")
	if !ok {
		t.Fatal("instance layout missing from response")
	}
	if loc := l.Nodes["c:1"].Location; !loc.Eq(geom.Pt(400, 0)) {
		t.Errorf("c:1 = %v, want (400,0)", loc)
	}
	if got.Report.Strategy != "direct-copy" || got.Nodes != 3 {
		t.Errorf("report = %+v, nodes = %d", got.Report, got.Nodes)
	}
}

func TestErrors(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	broken := testDoc()
	broken.Network.Links = append(broken.Network.Links, graph.Link{ID: "cx", Source: "c", Target: "x"})

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
		wantCode   rserrors.Code
	}{
		{"MalformedJSON", "/v1/sync", "{", http.StatusBadRequest, rserrors.ErrCodeInvalidInput},
		{"BrokenDocument", "/v1/sync", SyncRequest{Document: broken, Options: pipeline.Options{Instance: "I1"}}, http.StatusBadRequest, rserrors.ErrCodeInvalidDocument},
		{"MissingInstance", "/v1/sync", SyncRequest{Document: testDoc()}, http.StatusBadRequest, rserrors.ErrCodeInvalidInput},
		{"UnknownInstance", "/v1/sync", SyncRequest{Document: testDoc(), Options: pipeline.Options{Instance: "I9"}}, http.StatusNotFound, rserrors.ErrCodeNotFound},
		{"BadStrategy", "/v1/sync", SyncRequest{Document: testDoc(), Options: pipeline.Options{Instance: "I1", Strategy: "teleport"}}, http.StatusBadRequest, rserrors.ErrCodeInvalidOptions},
		{"UnknownLayout", "/v1/route", RouteRequest{Document: testDoc(), Layout: "I1"}, http.StatusNotFound, rserrors.ErrCodeNotFound},
		{"BadFormat", "/v1/regions/I1?format=png", RegionsRequest{Document: testDoc()}, http.StatusBadRequest, rserrors.ErrCodeInvalidOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var got ErrorResponse
			decodeBody(t, resp, &got)
			if got.Code != string(tt.wantCode) {
				t.Errorf("code = %q, want %q (%s)", got.Code, tt.wantCode, got.Error)
			}
		})
	}
}

func TestRouteAndColors(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv.URL+"/v1/route", RouteRequest{Document: testDoc()})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("route status = %d, want 200", resp.StatusCode)
	}
	var routed Response
	decodeBody(t, resp, &routed)
	if routed.Target != graph.RootLayout {
		t.Errorf("Target = %q, want %q", routed.Target, graph.RootLayout)
	}
	if !routed.Document.Layouts[graph.RootLayout].HasLink("ab") {
		t.Error("link ab not routed")
	}

	resp = post(t, srv.URL+"/v1/colors", ColorRequest{Document: routed.Document})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("colors status = %d, want 200", resp.StatusCode)
	}
}

func TestRegions(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv.URL+"/v1/regions/I1", RegionsRequest{Document: testDoc()})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("json status = %d, want 200", resp.StatusCode)
	}
	var o struct {
		Column map[string]int `json:"column"`
	}
	decodeBody(t, resp, &o)
	if o.Column["R1"] != 0 || o.Column["R2"] != 1 {
		t.Errorf("columns = %v, want R1:0 R2:1", o.Column)
	}

	resp = post(t, srv.URL+"/v1/regions/I1?format=dot", RegionsRequest{Document: testDoc()})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dot status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("content type = %q", ct)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `"R1" -> "R2"`) {
		t.Errorf("dot output missing edge:\n%s", buf.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code rserrors.Code
		want int
	}{
		{rserrors.ErrCodeInvalidID, http.StatusBadRequest},
		{rserrors.ErrCodeRegionNotFound, http.StatusNotFound},
		{rserrors.ErrCodeContractViolation, http.StatusUnprocessableEntity},
		{rserrors.ErrCodeCancelled, http.StatusServiceUnavailable},
		{rserrors.ErrCodeTransaction, http.StatusConflict},
		{rserrors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(rserrors.New(tt.code, "x")); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
