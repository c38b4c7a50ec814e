package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServer_RenderPNG(t *testing.T) {
	src := "@startuml\nA -> B\n@enduml"
	img := testPNG(t, 3, 2)

	var gotSource string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc, ok := strings.CutPrefix(r.URL.Path, "/plantuml/png/")
		if !ok {
			http.NotFound(w, r)
			return
		}
		dec, err := Decode(enc)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotSource = string(dec)
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	}))
	defer ts.Close()

	s := NewServer(ts.URL + "/plantuml/")
	data, err := s.RenderPNG(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("RenderPNG failed: %v", err)
	}
	if gotSource != src {
		t.Errorf("Server received %q, want %q", gotSource, src)
	}
	if !isPNG(data) {
		t.Error("Expected PNG data")
	}
}

func TestServer_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewServer(ts.URL).RenderPNG(context.Background(), []byte("@startuml\n@enduml"))
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", statusErr.StatusCode)
	}
}

func TestServer_EmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	_, err := NewServer(ts.URL).RenderPNG(context.Background(), []byte("x"))
	if !errors.Is(err, ErrEmptyOutput) {
		t.Errorf("Expected ErrEmptyOutput, got %v", err)
	}
}

func TestServer_DefaultURL(t *testing.T) {
	s := NewServer("")
	u, err := s.URL([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(u, DefaultServerURL+"/png/") {
		t.Errorf("Unexpected URL %q", u)
	}
}
