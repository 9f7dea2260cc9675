package main

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dlna-server/internal/startup"
)

func TestServerTimeouts(t *testing.T) {
	srv := newServer(":8200", http.NotFoundHandler())

	if srv.WriteTimeout != 0 {
		t.Errorf("WriteTimeout = %v, streams must not be cut off", srv.WriteTimeout)
	}
	if srv.ReadTimeout != 15*time.Second || srv.IdleTimeout != 60*time.Second {
		t.Errorf("timeouts = read %v idle %v", srv.ReadTimeout, srv.IdleTimeout)
	}
	if srv.ReadHeaderTimeout == 0 {
		t.Error("ReadHeaderTimeout unset")
	}
}

func TestMetricsServerTimeouts(t *testing.T) {
	srv := newMetricsServer(":9090", http.NotFoundHandler())

	if srv.Addr != ":9090" {
		t.Errorf("Addr = %q", srv.Addr)
	}
	if srv.WriteTimeout == 0 || srv.ReadTimeout == 0 {
		t.Error("metrics server needs read and write timeouts")
	}
}

func TestApplyMiddleware(t *testing.T) {
	xml := strings.Repeat("<service/>", 500)
	mux := http.NewServeMux()
	mux.HandleFunc("/content/desc.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		io.WriteString(w, xml)
	})
	mux.HandleFunc("/video/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "video/x-matroska")
		w.WriteHeader(http.StatusPartialContent)
		io.WriteString(w, xml)
	})

	handler := applyMiddleware(mux, &startup.Config{})

	req := httptest.NewRequest(http.MethodGet, "/content/desc.xml", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatal("description not compressed")
	}
	zr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if body, _ := io.ReadAll(zr); string(body) != xml {
		t.Error("decompressed body mismatch")
	}

	req = httptest.NewRequest(http.MethodGet, "/video/a.mkv", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Errorf("video status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != xml {
		t.Error("video response altered by middleware")
	}
}

func TestShutdownTimeout(t *testing.T) {
	if shutdownTimeout < 10*time.Second {
		t.Errorf("shutdownTimeout = %v, too short for renderers to finish", shutdownTimeout)
	}
}
