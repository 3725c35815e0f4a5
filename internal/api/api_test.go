package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/dagaz/internal/ledger"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/testutil"
)

func testServer(t *testing.T, authEnabled bool, token string) (*httptest.Server, storage.Provider, *ledger.DB) {
	t.Helper()
	_, store := testutil.TestArchive(t)
	db := testutil.TestLedger(t)
	svc := NewService(store, db)
	srv := httptest.NewServer(NewRouter(svc, authEnabled, token, nil))
	t.Cleanup(srv.Close)
	return srv, store, db
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestListArchives(t *testing.T) {
	srv, store, _ := testServer(t, false, "")
	if err := store.Write("activities/piano.md", []byte("# piano\n")); err != nil {
		t.Fatal(err)
	}

	var body struct {
		Archives []struct {
			Path string `json:"path"`
		} `json:"archives"`
	}
	if code := getJSON(t, srv.URL+"/archives", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(body.Archives) != 1 || body.Archives[0].Path != "activities/piano.md" {
		t.Errorf("archives = %+v", body.Archives)
	}
}

func TestGetArchive(t *testing.T) {
	srv, store, _ := testServer(t, false, "")
	content := "# piano\n\n## 2026-08-30\n\n- 45min Bach\n"
	if err := store.Write("activities/piano.md", []byte(content)); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/archives/activities/piano.md")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}

	if code := getJSON(t, srv.URL+"/archives/activities/missing.md", nil); code != http.StatusNotFound {
		t.Errorf("missing archive status = %d, want 404", code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _, db := testServer(t, false, "")
	rows := []ledger.Row{
		{Path: "activities/piano.md", Key: "piano", Date: "2026-08-30", Raw: "45min Bach", Minutes: 45},
	}
	if err := db.ReplaceFile("activities/piano.md", "piano", "cs", rows); err != nil {
		t.Fatal(err)
	}

	var body struct {
		Stats []ledger.KeyStats `json:"stats"`
	}
	if code := getJSON(t, srv.URL+"/stats?key=piano", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(body.Stats) != 1 || body.Stats[0].Minutes != 45 {
		t.Errorf("stats = %+v", body.Stats)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	srv, _, _ := testServer(t, false, "")
	if code := getJSON(t, srv.URL+"/search", nil); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestAuth(t *testing.T) {
	srv, _, _ := testServer(t, true, "secret")

	if code := getJSON(t, srv.URL+"/keys", nil); code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", code)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/keys", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", resp.StatusCode)
	}
}
