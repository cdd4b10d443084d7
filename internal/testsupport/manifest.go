package testsupport

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ManifestServer serves a remote-source manifest of inline lesson documents.
// The lesson set can be swapped between requests to simulate upstream edits.
type ManifestServer struct {
	t   testing.TB
	srv *httptest.Server

	mu   sync.Mutex
	docs []LessonDoc
	fail bool
}

// NewManifestServer starts a stub manifest endpoint seeded with docs and
// registers cleanup.
func NewManifestServer(t testing.TB, docs ...LessonDoc) *ManifestServer {
	t.Helper()

	m := &ManifestServer{t: t, docs: docs}
	m.srv = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.srv.Close)
	return m
}

// URL returns the manifest endpoint.
func (m *ManifestServer) URL() string {
	return m.srv.URL + "/manifest.json"
}

// SetLessons replaces the served lesson set.
func (m *ManifestServer) SetLessons(docs ...LessonDoc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = docs
	m.fail = false
}

// FailWith makes every subsequent request return HTTP 503 until SetLessons
// is called again.
func (m *ManifestServer) FailWith() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = true
}

func (m *ManifestServer) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	docs := m.docs
	fail := m.fail
	m.mu.Unlock()

	if fail {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	var body bytes.Buffer
	body.WriteString(`{"name":"stub","lessons":[`)
	for i, doc := range docs {
		if i > 0 {
			body.WriteByte(',')
		}
		body.Write(doc.JSON(m.t))
	}
	body.WriteString(`]}`)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body.Bytes())
}
