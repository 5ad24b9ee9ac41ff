package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/ftsearch/internal/analysis"
	"github.com/kailas-cloud/ftsearch/internal/command"
	"github.com/kailas-cloud/ftsearch/internal/shard"
)

func newTestServer(t *testing.T) (*Server, *command.Manager) {
	t.Helper()
	shards := map[string]*shard.Shard{
		"s0": shard.New(analysis.NewStandardAnalyzer(), nil, nil),
	}
	mgr := command.New(shards, nil, nil)
	def, err := command.ParseCreate([]string{
		"idx", "ON", "HASH", "PREFIX", "1", "doc:",
		"SCHEMA", "name", "TAG", "SORTABLE",
	})
	if err != nil {
		t.Fatalf("ParseCreate: %v", err)
	}
	if err := mgr.CreateIndex(def); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	mgr.Dispatch("doc:1", map[string]string{"name": "apple"}, nil)
	return NewServer(mgr, nil), mgr
}

func TestHandleListReturnsCreatedIndex(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router(nil)

	req := httptest.NewRequest("GET", "/indexes", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct{ Indexes []string `json:"indexes"` }
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Indexes) != 1 || body.Indexes[0] != "idx" {
		t.Fatalf("unexpected indexes: %v", body.Indexes)
	}
}

func TestHandleInfoReturnsAttributesAndDocCount(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router(nil)

	req := httptest.NewRequest("GET", "/indexes/idx", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var info command.InfoReply
	if err := json.NewDecoder(rr.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.NumDocs != 1 || len(info.Attributes) != 1 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestHandleInfoUnknownIndex404(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router(nil)

	req := httptest.NewRequest("GET", "/indexes/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != 404 {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHandleTagVals(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router(nil)

	req := httptest.NewRequest("GET", "/indexes/idx/tagvals/name", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct{ Values []string `json:"values"` }
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Values) != 1 || body.Values[0] != "apple" {
		t.Fatalf("unexpected tagvals: %v", body.Values)
	}
}

func TestHandleExplainRequiresQueryParam(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router(nil)

	req := httptest.NewRequest("GET", "/indexes/idx/explain", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != 400 {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleExplainRendersPlan(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router(nil)

	req := httptest.NewRequest("GET", "/indexes/idx/explain?query=@name:{apple}", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router(nil)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
