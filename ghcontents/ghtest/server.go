// Package ghtest runs an in-memory stand-in for the GitHub contents API.
package ghtest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strings"
	"sync"
)

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Auth   string
	Accept string
	Body   map[string]any
}

// Server is a fake contents API for a single owner/repo.
type Server struct {
	*httptest.Server

	Owner string
	Repo  string

	mu       sync.Mutex
	files    map[string][]byte
	failures map[string]int
	requests []Request
}

// New starts a fake server. Close it when done.
func New(owner, repo string) *Server {
	s := &Server{
		Owner:    owner,
		Repo:     repo,
		files:    make(map[string][]byte),
		failures: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Seed stores a file without recording a request.
func (s *Server) Seed(p string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[p] = data
}

// File returns the stored bytes at p.
func (s *Server) File(p string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[p]
	return b, ok
}

// Fail makes every request for "METHOD path" answer with status.
func (s *Server) Fail(method, p string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+p] = status
}

// Requests returns the recorded calls in order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Writes returns the recorded PUT and DELETE calls.
func (s *Server) Writes() []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == http.MethodPut || r.Method == http.MethodDelete {
			out = append(out, r)
		}
	}
	return out
}

// SHA is the blob sha the server reports for data.
func SHA(data []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(data))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Server) downloadURL(p string) string {
	return fmt.Sprintf("%s/raw/%s/%s/main/%s", s.URL, s.Owner, s.Repo, p)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	prefix := fmt.Sprintf("/repos/%s/%s/contents/", s.Owner, s.Repo)
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	p := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	req := Request{
		Method: r.Method,
		Path:   p,
		Auth:   r.Header.Get("Authorization"),
		Accept: r.Header.Get("Accept"),
	}
	if r.Body != nil && r.ContentLength != 0 {
		_ = json.NewDecoder(r.Body).Decode(&req.Body)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	if status, ok := s.failures[r.Method+" "+p]; ok {
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.get(w, p)
	case http.MethodPut:
		s.put(w, p, req.Body)
	case http.MethodDelete:
		s.delete(w, p, req.Body)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method Not Allowed"})
	}
}

func (s *Server) entry(p string) map[string]any {
	data := s.files[p]
	return map[string]any{
		"name":         path.Base(p),
		"path":         p,
		"sha":          SHA(data),
		"size":         len(data),
		"type":         "file",
		"download_url": s.downloadURL(p),
	}
}

func (s *Server) get(w http.ResponseWriter, p string) {
	if data, ok := s.files[p]; ok {
		e := s.entry(p)
		e["encoding"] = "base64"
		e["content"] = wrap(base64.StdEncoding.EncodeToString(data))
		writeJSON(w, http.StatusOK, e)
		return
	}

	var names []string
	dirs := map[string]bool{}
	for fp := range s.files {
		rest, ok := strings.CutPrefix(fp, p+"/")
		if !ok {
			continue
		}
		if i := strings.Index(rest, "/"); i >= 0 {
			dirs[rest[:i]] = true
			continue
		}
		names = append(names, fp)
	}
	if len(names) == 0 && len(dirs) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	sort.Strings(names)
	list := make([]map[string]any, 0, len(names)+len(dirs))
	for d := range dirs {
		list = append(list, map[string]any{"name": d, "path": p + "/" + d, "type": "dir"})
	}
	for _, fp := range names {
		list = append(list, s.entry(fp))
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) put(w http.ResponseWriter, p string, body map[string]any) {
	sha, _ := body["sha"].(string)
	existing, exists := s.files[p]
	switch {
	case exists && sha == "":
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": `Invalid request. "sha" wasn't supplied.`})
		return
	case exists && sha != SHA(existing):
		writeJSON(w, http.StatusConflict, map[string]string{"message": p + " does not match " + sha})
		return
	case !exists && sha != "":
		writeJSON(w, http.StatusConflict, map[string]string{"message": p + " does not exist"})
		return
	}

	encoded, _ := body["content"].(string)
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "content is not valid Base64"})
		return
	}
	s.files[p] = data

	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}
	msg, _ := body["message"].(string)
	writeJSON(w, status, map[string]any{
		"content": s.entry(p),
		"commit":  map[string]any{"sha": SHA([]byte(msg + p)), "message": msg},
	})
}

func (s *Server) delete(w http.ResponseWriter, p string, body map[string]any) {
	existing, ok := s.files[p]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	sha, _ := body["sha"].(string)
	if sha != SHA(existing) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": p + " does not match " + sha})
		return
	}
	delete(s.files, p)
	msg, _ := body["message"].(string)
	writeJSON(w, http.StatusOK, map[string]any{
		"content": nil,
		"commit":  map[string]any{"sha": SHA([]byte(msg + p)), "message": msg},
	})
}

// wrap breaks base64 output into 60 column lines like the real API.
func wrap(s string) string {
	var b strings.Builder
	for len(s) > 60 {
		b.WriteString(s[:60])
		b.WriteByte('\n')
		s = s[60:]
	}
	b.WriteString(s)
	b.WriteByte('\n')
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
