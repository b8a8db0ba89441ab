package asset

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected local resource not to be remote")
	}
	if res.Ext() != ".go" {
		t.Fatalf("expected extension .go; got %q", res.Ext())
	}
	data, err := res.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "package asset") {
		t.Fatalf("expected to read this file's contents; got %q", string(data[:20]))
	}

	if _, err = NewResource(filepath.Join(filepath.Dir(thisFile), "missing.obj"), nil); err == nil {
		t.Fatal("expected an error opening a missing file")
	}
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	fetchUrl := server.URL + "/" + filepath.Base(thisFile)
	res, err := NewResource(fetchUrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	fetchUrl = server.URL + "/file-not-found.foo"
	expError := fmt.Sprintf("resource: could not fetch '%s': status %d", fetchUrl, 404)
	_, err = NewResource(fetchUrl, nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestRelativeResources(t *testing.T) {
	serverHits := 0
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits++
		if r.URL.Path == "/foo/file1.go" {
			w.Write([]byte("OK"))
		} else if r.URL.Path == "/foo/file2.go" {
			w.Write([]byte("OK"))
		} else {
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res1, err := NewResource(server.URL+"/foo/file1.go", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res1.Close()
	res2, err := NewResource("file2.go", res1)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()

	if !res2.IsRemote() {
		t.Fatal("expected resource relative to a remote resource to be remote")
	}
	if data, err := res2.Bytes(); err != nil || string(data) != "OK" {
		t.Fatalf("expected to read OK; got %q (%v)", string(data), err)
	}

	if serverHits != 2 {
		t.Fatalf("expected server to receive 2 requests; got %d", serverHits)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	expError := "resource: unsupported scheme 'gopher'"
	_, err := NewResource("gopher://digging.go", nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestResourceConnectionRefusedError(t *testing.T) {
	_, err := NewResource("http://localhost:12345/foo.go", nil)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected to get 'connection refused error'; got %v", err)
	}
}

func TestStreamResource(t *testing.T) {
	res := NewResourceFromStream("scenes/cube.GLB", strings.NewReader("payload"))
	defer res.Close()

	if res.Path() != "scenes/cube.GLB" {
		t.Fatalf("expected path scenes/cube.GLB; got %s", res.Path())
	}
	if res.Ext() != ".glb" {
		t.Fatalf("expected lower-cased extension .glb; got %q", res.Ext())
	}
	if data, err := res.Bytes(); err != nil || string(data) != "payload" {
		t.Fatalf("expected to read payload; got %q (%v)", string(data), err)
	}
}
