package subscribe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"inspirewall/internal/auth"
	"inspirewall/pkg/database"
	"inspirewall/pkg/models"
	"inspirewall/pkg/utils"
)

type fakeUpstream struct {
	res   UpstreamResult
	err   error
	calls []string
}

func (f *fakeUpstream) Name() string { return "fake" }

func (f *fakeUpstream) Upsert(_ context.Context, email string) (UpstreamResult, error) {
	f.calls = append(f.calls, email)
	return f.res, f.err
}

type fixture struct {
	router *gin.Engine
	log    *EmailLog
	repo   *Repo
}

func openTestDB(t *testing.T) *Repo {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepo(db)
}

func newFixture(t *testing.T, upstream Upstream) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		log:  NewEmailLog(filepath.Join(t.TempDir(), "data", "emails.json")),
		repo: openTestDB(t),
	}
	tokens := auth.TokenService{Secret: []byte("k"), Issuer: "inspirewall", Duration: time.Hour}
	admin := auth.AdminMiddleware(auth.NewSecretVerifier("dev-secret", ""), tokens)

	f.router = gin.New()
	NewHandler(f.log, f.repo, upstream, nil).RegisterRoutes(f.router.Group("/api"), admin)
	return f
}

func (f *fixture) do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return w.Code, out
}

func (f *fixture) records(t *testing.T) []models.EmailRecord {
	t.Helper()
	all, err := f.log.All()
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return all
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	f := newFixture(t, nil)
	for _, body := range []string{
		`{"email":"not-an-email"}`,
		`{"email":"a@b"}`,
		`{"email":"a b@c.de"}`,
		`{"email":""}`,
		`{"email":42}`,
		`{}`,
		`not json`,
	} {
		code, out := f.do(t, http.MethodPost, "/api/subscribe", body)
		if code != http.StatusBadRequest || out["success"] != false || out["error"] != "Invalid email" {
			t.Fatalf("%s: %d %v", body, code, out)
		}
	}
	if n := len(f.records(t)); n != 0 {
		t.Fatalf("invalid emails logged: %d", n)
	}
}

func TestSubscribeLocal(t *testing.T) {
	f := newFixture(t, nil)
	code, out := f.do(t, http.MethodPost, "/api/subscribe", `{"email":"  reader@example.com "}`)
	if code != http.StatusOK || out["success"] != true || out["source"] != SourceLocal {
		t.Fatalf("%d %v", code, out)
	}

	recs := f.records(t)
	if len(recs) != 1 || recs[0].Email != "reader@example.com" {
		t.Fatalf("records: %+v", recs)
	}
	if _, err := time.Parse(time.RFC3339Nano, recs[0].Timestamp); err != nil {
		t.Fatalf("timestamp %q: %v", recs[0].Timestamp, err)
	}

	items, err := f.repo.List(context.Background(), ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Source != SourceLocal {
		t.Fatalf("audit: %+v", items)
	}
}

func TestSubscribeUpstreamOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		upstream   *fakeUpstream
		wantCode   int
		wantSource string
	}{
		{"accepted", &fakeUpstream{res: UpstreamResult{OK: true, Status: 200, Body: json.RawMessage(`{"id":"abc"}`)}}, http.StatusOK, SourceMailchimp},
		{"rejected", &fakeUpstream{res: UpstreamResult{Status: 400, Body: json.RawMessage(`{"title":"Invalid Resource"}`)}}, http.StatusOK, SourceLocalFallback},
		{"unreachable", &fakeUpstream{err: errors.New("dial tcp: refused")}, http.StatusInternalServerError, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.upstream)
			code, out := f.do(t, http.MethodPost, "/api/subscribe", `{"email":"fan@example.com"}`)
			if code != tc.wantCode {
				t.Fatalf("status %d: %v", code, out)
			}
			switch tc.wantSource {
			case SourceMailchimp:
				data, _ := out["data"].(map[string]any)
				if out["source"] != SourceMailchimp || data["id"] != "abc" {
					t.Fatalf("body: %v", out)
				}
			case SourceLocalFallback:
				upstreamErr, _ := out["error"].(map[string]any)
				if out["success"] != true || out["source"] != SourceLocalFallback || upstreamErr["title"] != "Invalid Resource" {
					t.Fatalf("body: %v", out)
				}
			default:
				if out["success"] != false || out["error"] != "Internal Server Error" {
					t.Fatalf("body: %v", out)
				}
			}
			// the local log gains the address whatever the upstream said
			if recs := f.records(t); len(recs) != 1 || recs[0].Email != "fan@example.com" {
				t.Fatalf("records: %+v", recs)
			}
		})
	}
}

func TestSubscribeCorruptLogIsServerError(t *testing.T) {
	f := newFixture(t, nil)
	if err := os.MkdirAll(filepath.Dir(f.log.Path()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(f.log.Path(), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	code, out := f.do(t, http.MethodPost, "/api/subscribe", `{"email":"x@example.com"}`)
	if code != http.StatusInternalServerError || out["error"] != "Internal Server Error" {
		t.Fatalf("%d %v", code, out)
	}
}

func TestEmailsRequiresSecret(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/subscribe", `{"email":"one@example.com"}`)
	f.do(t, http.MethodPost, "/api/subscribe", `{"email":"two@example.com"}`)

	for _, url := range []string{"/api/emails", "/api/emails?secret=wrong"} {
		code, out := f.do(t, http.MethodGet, url, "")
		if code != http.StatusUnauthorized || out["error"] != "Unauthorized" {
			t.Fatalf("%s: %d %v", url, code, out)
		}
	}

	code, out := f.do(t, http.MethodGet, "/api/emails?secret=dev-secret", "")
	if code != http.StatusOK || out["success"] != true || out["count"] != float64(2) {
		t.Fatalf("%d %v", code, out)
	}
	emails, _ := out["emails"].([]any)
	if len(emails) != 2 {
		t.Fatalf("emails: %v", out["emails"])
	}
}

func TestAdminSubscriptions(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/subscribe", `{"email":"one@example.com"}`)
	f.do(t, http.MethodPost, "/api/subscribe", `{"email":"two@example.com"}`)

	code, _ := f.do(t, http.MethodGet, "/api/admin/subscriptions", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: %d", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/subscriptions?email=TWO@example.com", nil)
	req.Header.Set("X-Admin-Secret", "dev-secret")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Total int                          `json:"total"`
		Items []models.SubscriptionAttempt `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 1 || resp.Items[0].Email != "two@example.com" {
		t.Fatalf("resp: %+v", resp)
	}
}

func TestMailchimpUpsert(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody memberPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodPut {
			t.Errorf("method %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		if strings.Contains(gotBody.EmailAddress, "bad") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"title":"Invalid Resource"}`))
			return
		}
		w.Write([]byte(`{"id":"x","status":"subscribed"}`))
	}))
	defer srv.Close()

	m := NewMailchimp(utils.MailchimpConfig{APIKey: "abc123-us21", ListID: "list9"})
	if m.Datacenter() != "us21" {
		t.Fatalf("datacenter: %s", m.Datacenter())
	}
	m.BaseURL = srv.URL

	res, err := m.Upsert(context.Background(), "Fan@Example.com")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !res.OK || res.Status != 200 {
		t.Fatalf("result: %+v", res)
	}
	if want := "/3.0/lists/list9/members/" + MemberID("fan@example.com"); gotPath != want {
		t.Fatalf("path %s, want %s", gotPath, want)
	}
	if gotAuth != "apikey abc123-us21" {
		t.Fatalf("auth header %q", gotAuth)
	}
	if gotBody.EmailAddress != "Fan@Example.com" || gotBody.StatusIfNew != "subscribed" {
		t.Fatalf("payload %+v", gotBody)
	}

	res, err = m.Upsert(context.Background(), "bad@example.com")
	if err != nil {
		t.Fatalf("Upsert rejected: %v", err)
	}
	if res.OK || res.Status != http.StatusBadRequest {
		t.Fatalf("rejected result: %+v", res)
	}
}

func TestMemberID(t *testing.T) {
	// md5("test@example.com")
	if got := MemberID("TEST@example.com"); got != "55502f40dc8b7c769880b10874abc9d0" {
		t.Fatalf("MemberID: %s", got)
	}
}
