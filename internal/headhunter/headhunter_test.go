package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const vacancyJSON = `{
  "id": "42",
  "name": "Go developer",
  "alternate_url": "https://hh.ru/vacancy/42",
  "employer": {"id": "7", "name": "Acme"},
  "key_skills": [{"name": "Go"}, {"name": " PostgreSQL "}, {"name": ""}],
  "description": "<p>We need:</p><ul><li>Go &amp; gRPC;</li><li><strong>PostgreSQL</strong></li><li>k8</li></ul>",
  "snippet": {"requirement": "Go. SQL.", "responsibility": "Build <highlighttext>services</highlighttext>. Review code."}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(zap.NewNop(), "")
	c.APIURL = srv.URL
	c.RetryDelay = time.Millisecond
	c.limiter = rate.NewLimiter(rate.Inf, 0)
	return c
}

func TestVacancyStoreJobDescription(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vacancies/42" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("anonymous client must not send a token")
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(vacancyJSON))
		_ = gz.Close()
	})

	jd, err := NewVacancyStore(c, "42").JobDescription(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if jd.Position != "Go developer" || jd.Company != "Acme" || jd.URL != "https://hh.ru/vacancy/42" {
		t.Fatalf("unexpected job description: %+v", jd)
	}
	if diff := cmp.Diff([]string{"Go", "PostgreSQL"}, jd.Keywords); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"We need:", "Go & gRPC", "PostgreSQL"}, jd.Requirements); diff != "" {
		t.Fatalf("requirements mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Build services", "Review code"}, jd.Responsibilities); diff != "" {
		t.Fatalf("responsibilities mismatch (-want +got):\n%s", diff)
	}
}

func TestVacancyStoreErrors(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/vacancies/1" {
			_, _ = w.Write([]byte(`{"id": "1"}`))
			return
		}
		http.NotFound(w, r)
	})

	if _, err := NewVacancyStore(c, "404").JobDescription(context.Background()); err == nil {
		t.Fatalf("expected error for missing vacancy")
	}
	if _, err := NewVacancyStore(c, "1").JobDescription(context.Background()); err == nil {
		t.Fatalf("expected validation error for vacancy without a name")
	}
	if _, err := c.GetVacancy(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestSnippetFallback(t *testing.T) {
	t.Parallel()

	v := &Vacancy{Name: "Dev"}
	v.Snipet.Requirement = "Experience with <highlighttext>Go</highlighttext>. Docker; Linux."
	jd := v.JobDescription()
	if diff := cmp.Diff([]string{"Experience with Go", "Docker", "Linux"}, jd.Requirements); diff != "" {
		t.Fatalf("requirements mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchFollowsPagesUpToLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("text") != "golang" || q.Get("per_page") != "100" || q.Get("area") != "1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Has("MaxPages") || q.Has("max_pages") {
			t.Errorf("page limit must not be sent: %s", r.URL.RawQuery)
		}
		page := q.Get("page")
		if page == "" {
			page = "0"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"id": "v" + page, "name": "Vacancy " + page, "employer": map[string]any{"name": "Acme"}}},
			"pages": 5,
			"page":  map[string]int{"0": 0, "1": 1, "2": 2}[page],
		})
	})

	vacancies, err := c.Search(context.Background(), &SearchParams{Text: "golang", Areas: []int{1}, MaxPages: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", calls.Load())
	}
	if diff := cmp.Diff([]string{"Vacancy 0, Acme [v0]", "Vacancy 1, Acme [v1]"}, vacancies.Titles()); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}
	if vacancies.FindByID("v1") == nil || vacancies.FindByID("v9") != nil {
		t.Fatalf("unexpected FindByID result")
	}
}

func TestRequestRetriesRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(vacancyJSON))
	})

	v, err := c.GetVacancy(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ID != "42" || calls.Load() != 3 {
		t.Fatalf("unexpected vacancy %q after %d calls", v.ID, calls.Load())
	}
}

func TestRequestGivesUpOnRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := c.GetVacancy(context.Background(), "42"); err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected bad status error, got %v", err)
	}
	if calls.Load() != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, calls.Load())
	}
}

func TestResumeStoreProfile(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{
		  "id": "r1",
		  "title": "Backend engineer",
		  "first_name": "Ann",
		  "last_name": "Lee",
		  "skills": "<p>I like <b>distributed</b> systems</p>",
		  "skill_set": ["Go", " Kafka ", ""],
		  "experience": [{"company": "Acme", "position": "Developer", "start": "2020-01-01", "end": null}],
		  "education": {"level": {"id": "higher"}, "primary": [{"name": "MSU", "result": "Computer science", "year": 2015}]}
		}`))
	})
	c.token = "secret"

	profile, err := NewResumeStore(c, "r1").Resume(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.Name != "Ann Lee" {
		t.Fatalf("unexpected name %q", profile.Name)
	}
	if profile.Summary != "Backend engineer. I like distributed systems" {
		t.Fatalf("unexpected summary %q", profile.Summary)
	}
	if diff := cmp.Diff([]string{"Go", "Kafka"}, profile.Skills); diff != "" {
		t.Fatalf("skills mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Developer at Acme"}, profile.Experience); diff != "" {
		t.Fatalf("experience mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"MSU, Computer science"}, profile.Education); diff != "" {
		t.Fatalf("education mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildParams(t *testing.T) {
	t.Parallel()

	q := buildParams(&SearchParams{Text: "go", Areas: []int{1, 2}, Period: 0, OrderBy: "publication_time", MaxPages: 3})
	want := "area=1&area=2&order_by=publication_time&text=go"
	if got := q.Encode(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
