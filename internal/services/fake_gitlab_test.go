package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"capsules-stat/internal/common"
	"capsules-stat/internal/models"

	"github.com/ternarybob/arbor"
)

const testToken = "glpat-test"

// fakeGitLab serves the subset of the REST v4 API the exporter uses
type fakeGitLab struct {
	t *testing.T

	mu            sync.Mutex
	project       models.Project
	pages         map[int][]models.Job
	traces        map[int64][]byte
	failPage      int
	listRequests  []int
	traceRequests []int64
	server        *httptest.Server
}

func newFakeGitLab(t *testing.T, projectID int64) *fakeGitLab {
	f := &fakeGitLab{
		t:       t,
		project: models.Project{ID: projectID, Name: "capsule", PathWithNamespace: "group/capsule"},
		pages:   make(map[int][]models.Job),
		traces:  make(map[int64][]byte),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGitLab) addJob(page int, id int64, name string, trace []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[page] = append(f.pages[page], models.Job{ID: id, Name: name, Status: "success"})
	if trace != nil {
		f.traces[id] = trace
	}
}

func (f *fakeGitLab) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listRequests)
}

func (f *fakeGitLab) traceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.traceRequests)
}

func (f *fakeGitLab) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("PRIVATE-TOKEN") != testToken {
		http.Error(w, `{"message":"401 Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v4/"), "/")
	if len(parts) < 2 || parts[0] != "projects" || parts[1] != strconv.FormatInt(f.project.ID, 10) {
		http.Error(w, `{"message":"404 Project Not Found"}`, http.StatusNotFound)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case len(parts) == 2:
		writeJSON(w, f.project)

	case len(parts) == 3 && parts[2] == "jobs":
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		f.listRequests = append(f.listRequests, page)
		if f.failPage != 0 && page == f.failPage {
			http.Error(w, `{"message":"500 Internal Server Error"}`, http.StatusInternalServerError)
			return
		}
		jobs := f.pages[page]
		if jobs == nil {
			jobs = []models.Job{}
		}
		writeJSON(w, jobs)

	case len(parts) == 5 && parts[2] == "jobs" && parts[4] == "trace":
		id, _ := strconv.ParseInt(parts[3], 10, 64)
		f.traceRequests = append(f.traceRequests, id)
		trace, ok := f.traces[id]
		if !ok {
			http.Error(w, `{"message":"404 Not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write(trace)

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (f *fakeGitLab) client() *gitlabClient {
	return NewGitLabClient(&common.GitLabConfig{
		URI:            f.server.URL,
		ProjectID:      f.project.ID,
		TimeoutSeconds: 5,
	}, testToken, arbor.NewLogger()).(*gitlabClient)
}
