package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockbook/internal/domain/models"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(ClientConfig{Owner: "acme", Repo: "books", Token: "tkn", BaseURL: srv.URL}, nil)
	waits := &[]time.Duration{}
	c.sleep = func(d time.Duration) { *waits = append(*waits, d) }
	c.jitter = func() time.Duration { return 0 }
	return c, waits
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestUpdateDataRetriesTransientFailures(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repos/acme/books/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"content": map[string]string{"sha": "newsha"},
			"commit":  map[string]string{"sha": "c1", "message": "save"},
		})
	})

	c, waits := newTestClient(t, mux)

	commit, err := c.UpdateData(context.Background(), "data.json", models.NewEmptyDocument(), "save", "oldsha", false)
	if err != nil {
		t.Fatalf("UpdateData: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if commit.SHA != "newsha" {
		t.Errorf("commit sha = %q, want newsha", commit.SHA)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*waits) != len(want) {
		t.Fatalf("waits = %v, want %v", *waits, want)
	}
	for i, d := range want {
		if (*waits)[i] != d {
			t.Errorf("wait[%d] = %v, want %v", i, (*waits)[i], d)
		}
	}
}

func TestUpdateDataDoesNotRetryAuthFailures(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repos/acme/books/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "bad credentials"})
	})

	c, _ := newTestClient(t, mux)

	_, err := c.UpdateData(context.Background(), "data.json", models.NewEmptyDocument(), "save", "sha", false)
	if TypeOf(err) != ErrAuthentication {
		t.Errorf("error type = %v, want %v", TypeOf(err), ErrAuthentication)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestFetchDataMissingFileStartsFresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/books/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})

	c, _ := newTestClient(t, mux)

	res, err := c.FetchData(context.Background(), "data.json")
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if !res.IsNewFile {
		t.Error("IsNewFile = false, want true")
	}
	if res.SHA != "" {
		t.Errorf("SHA = %q, want empty", res.SHA)
	}
	doc := res.Document
	for name, n := range map[string]int{
		"containers": len(doc.Containers), "products": len(doc.Products),
		"sales": len(doc.Sales), "expenses": len(doc.Expenses),
		"partners": len(doc.Partners), "withdrawals": len(doc.Withdrawals),
		"cashFlows": len(doc.CashFlows), "cashInjections": len(doc.CashInjections),
	} {
		if n != 0 {
			t.Errorf("collection %s not empty", name)
		}
	}
	if doc.Containers == nil || doc.CashInjections == nil {
		t.Error("collections must be non-nil in a fresh document")
	}
}

func TestFetchDataEmptyFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/books/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, contentResponse{Content: "", Encoding: "base64", SHA: "abc"})
	})

	c, _ := newTestClient(t, mux)

	res, err := c.FetchData(context.Background(), "data.json")
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if !res.WasEmpty {
		t.Error("WasEmpty = false, want true")
	}
	if res.SHA != "abc" {
		t.Errorf("SHA = %q, want abc", res.SHA)
	}
}

func TestFetchDataCorruptedFileCarriesSHA(t *testing.T) {
	garbage := base64.StdEncoding.EncodeToString([]byte("{not json"))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/books/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, contentResponse{Content: garbage, Encoding: "base64", SHA: "deadbeef"})
	})

	c, _ := newTestClient(t, mux)

	_, err := c.FetchData(context.Background(), "data.json")
	if TypeOf(err) != ErrParse {
		t.Fatalf("error type = %v, want %v", TypeOf(err), ErrParse)
	}
	apiErr := err.(*APIError)
	if apiErr.SHA != "deadbeef" {
		t.Errorf("parse error SHA = %q, want deadbeef", apiErr.SHA)
	}
}

func TestFetchDataNormalizesLegacyCost(t *testing.T) {
	legacy := `{"metadata":{"version":"1.0","nextIds":{"products":2}},"products":[{"id":1,"name":"Rice","costPerUnit":1.5,"bagWeight":25}]}`
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/books/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, contentResponse{
			Content:  base64.StdEncoding.EncodeToString([]byte(legacy)),
			Encoding: "base64",
			SHA:      "s1",
		})
	})

	c, _ := newTestClient(t, mux)

	res, err := c.FetchData(context.Background(), "data.json")
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if got := res.Document.Products[0].CostPerKg; got != 1.5 {
		t.Errorf("CostPerKg = %v, want 1.5 after legacy migration", got)
	}
}

func TestUpdateDataStaleRevisionIsConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repos/acme/books/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "data.json does not match"})
	})

	c, _ := newTestClient(t, mux)

	_, err := c.UpdateData(context.Background(), "data.json", models.NewEmptyDocument(), "save", "stale", false)
	if !IsConflict(err) {
		t.Errorf("IsConflict = false for %v", err)
	}
}

func TestUpdateDataForceOverwritesCurrentRevision(t *testing.T) {
	var putSHA string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/books/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, contentResponse{Content: "", Encoding: "base64", SHA: "remote-sha"})
	})
	mux.HandleFunc("PUT /repos/acme/books/contents/data.json", func(w http.ResponseWriter, r *http.Request) {
		var req putRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		putSHA = req.SHA

		raw, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			t.Errorf("content not base64: %v", err)
		}
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(raw, &doc); err != nil {
			t.Errorf("content not JSON: %v", err)
		}
		for _, name := range models.CollectionNames {
			if _, ok := doc[name]; !ok {
				t.Errorf("encoded document missing collection %s", name)
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"content": map[string]string{"sha": "after"},
			"commit":  map[string]string{"sha": "c2", "message": "force"},
		})
	})

	c, _ := newTestClient(t, mux)

	if _, err := c.UpdateData(context.Background(), "data.json", models.NewEmptyDocument(), "force", "whatever-stale", true); err != nil {
		t.Fatalf("UpdateData force: %v", err)
	}
	if putSHA != "remote-sha" {
		t.Errorf("force save used sha %q, want remote-sha", putSHA)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status  int
		message string
		want    ErrorType
	}{
		{401, "bad credentials", ErrAuthentication},
		{403, "API rate limit exceeded", ErrRateLimit},
		{403, "resource not accessible", ErrPermission},
		{404, "not found", ErrNotFound},
		{409, "merge conflict", ErrConflict},
		{422, "invalid request", ErrValidation},
		{500, "server error", ErrServer},
		{502, "bad gateway", ErrServer},
		{418, "teapot", ErrAPI},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d", tc.status), func(t *testing.T) {
			if got := classifyStatus(tc.status, tc.message); got.Type != tc.want {
				t.Errorf("classifyStatus(%d, %q) = %v, want %v", tc.status, tc.message, got.Type, tc.want)
			}
		})
	}
}

func TestTestConnectionReportsWriteAccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/books", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"name":        "books",
			"full_name":   "acme/books",
			"private":     true,
			"permissions": map[string]bool{"push": true},
		})
	})

	c, _ := newTestClient(t, mux)

	info, err := c.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection: %v", err)
	}
	if !info.HasWriteAccess {
		t.Error("HasWriteAccess = false, want true")
	}
	if info.FullName != "acme/books" {
		t.Errorf("FullName = %q", info.FullName)
	}
}
