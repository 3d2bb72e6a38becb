package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/nativestart-go/launcher/descriptor"
	"github.com/nativestart-go/launcher/progress"
	"github.com/nativestart-go/launcher/store"
)

func TestDownloadAndGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"acme"}`))
	}))
	defer srv.Close()

	e := New()
	body, ok := e.DownloadAndGet(context.Background(), srv.URL)
	if !ok {
		t.Fatal("expected DownloadAndGet to succeed")
	}
	if body != `{"name":"acme"}` {
		t.Errorf("body = %q", body)
	}
}

func TestDownloadAndGetFailureReturnsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := New()
	_, ok := e.DownloadAndGet(context.Background(), srv.URL)
	if ok {
		t.Fatal("expected DownloadAndGet to report failure on HTTP 500")
	}
}

func TestDownloadAndGetUnreachableReturnsFalse(t *testing.T) {
	e := New()
	_, ok := e.DownloadAndGet(context.Background(), "http://127.0.0.1:1/nope")
	if ok {
		t.Fatal("expected DownloadAndGet to report failure for an unreachable host")
	}
}

func TestDownloadAndStoreFileArtifact(t *testing.T) {
	content := []byte("hello world")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer srv.Close()

	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	a := descriptor.Artifact{URL: srv.URL, Path: "bin/app.jar", Size: uint64(len(content))}
	counter := progress.New(0)
	ch := progress.NewChannel()

	e := New()
	if err := e.DownloadAndStore(context.Background(), []descriptor.Artifact{a}, st, counter, ch); err != nil {
		t.Fatalf("DownloadAndStore: %v", err)
	}

	got := st.Path("bin/app.jar")
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("downloaded content = %q, want %q", data, content)
	}
	if counter.Fraction() != 1 {
		t.Errorf("Fraction after batch = %v, want 1", counter.Fraction())
	}

	select {
	case ev := <-ch:
		if ev.Kind != progress.EventStatusChanged {
			t.Errorf("first event = %+v, want EventStatusChanged", ev)
		}
	default:
		t.Fatal("expected a status-changed event")
	}
	select {
	case ev := <-ch:
		if ev.Kind != progress.EventDownloadDone {
			t.Errorf("second event = %+v, want EventDownloadDone", ev)
		}
	default:
		t.Fatal("expected a download-done event")
	}
}

func TestDownloadAndStoreRejectsArtifactOverMaxDownloadBytes(t *testing.T) {
	content := []byte("this body is way over the configured cap")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer srv.Close()

	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	a := descriptor.Artifact{URL: srv.URL, Path: "bin/app.jar", Size: uint64(len(content))}
	counter := progress.New(0)

	e := New(WithMaxDownloadBytes(4))
	err = e.DownloadAndStore(context.Background(), []descriptor.Artifact{a}, st, counter, nil)
	if err == nil {
		t.Fatal("expected DownloadAndStore to fail when the body exceeds MaxDownloadBytes")
	}
}

func TestDownloadAndStoreAllowsArtifactUnderMaxDownloadBytes(t *testing.T) {
	content := []byte("tiny")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer srv.Close()

	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	a := descriptor.Artifact{URL: srv.URL, Path: "bin/app.jar", Size: uint64(len(content))}
	counter := progress.New(0)

	e := New(WithMaxDownloadBytes(uint64(len(content))))
	if err := e.DownloadAndStore(context.Background(), []descriptor.Artifact{a}, st, counter, nil); err != nil {
		t.Fatalf("DownloadAndStore: %v", err)
	}
}
