package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusNotFound, "product_not_found", "Product not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "product_not_found" || body.Message != "Product not found" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Quantity int `json:"quantity"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":3}`))
	if err := DecodeJSON(r, &dst); err != nil || dst.Quantity != 3 {
		t.Fatalf("DecodeJSON = %v, %+v", err, dst)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(r, &dst); err != ErrEmptyBody {
		t.Errorf("empty body: got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	if err := DecodeJSON(r, &dst); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestPage(t *testing.T) {
	tests := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"", 1, DefaultPageSize},
		{"page=3&page_size=5", 3, 5},
		{"page=-1&page_size=abc", 1, DefaultPageSize},
		{"page_size=1000", 1, MaxPageSize},
		{"page=1000001", MaxPage, DefaultPageSize},
		{"page=9223372036854775807&page_size=100", MaxPage, MaxPageSize},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		page, size := Page(r)
		if page != tt.wantPage || size != tt.wantPageSize {
			t.Errorf("Page(%q) = %d, %d", tt.query, page, size)
		}
	}
}

func TestPages(t *testing.T) {
	if got := Pages(0, 20); got != 0 {
		t.Errorf("Pages(0) = %d", got)
	}
	if got := Pages(41, 20); got != 3 {
		t.Errorf("Pages(41) = %d", got)
	}
	if got := Pages(40, 20); got != 2 {
		t.Errorf("Pages(40) = %d", got)
	}
}
