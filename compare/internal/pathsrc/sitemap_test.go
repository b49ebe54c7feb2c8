package pathsrc

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MUGALN/Site-visual-crawler-compare/compare/internal/fetchx"
)

func leafSitemap(locs ...string) string {
	b := &bytes.Buffer{}
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, l := range locs {
		fmt.Fprintf(b, "<url><loc>%s</loc></url>", l)
	}
	b.WriteString("</urlset>")
	return b.String()
}

func indexSitemap(locs ...string) string {
	b := &bytes.Buffer{}
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, l := range locs {
		fmt.Fprintf(b, "<sitemap><loc>%s</loc></sitemap>", l)
	}
	b.WriteString("</sitemapindex>")
	return b.String()
}

func newSitemapSource(t *testing.T, origin string, strict bool) *SitemapSource {
	t.Helper()
	return NewSitemapSource(fetchx.New(fetchx.Config{}), SitemapConfig{
		Origin:       origin,
		StrictOrigin: strict,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestSitemapSource_IndexWithTwoLeaves(t *testing.T) {
	// WHAT: A sitemap-index pointing at two leaf sitemaps with 3 and 2
	// unique locs yields 5 unique paths, sorted shallow-first.
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexSitemap(srv.URL+"/leaf1.xml", srv.URL+"/leaf2.xml"))
	})
	mux.HandleFunc("/leaf1.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, leafSitemap(srv.URL+"/", srv.URL+"/about", srv.URL+"/blog/post"))
	})
	mux.HandleFunc("/leaf2.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, leafSitemap(srv.URL+"/contact", srv.URL+"/pricing"))
	})

	src := newSitemapSource(t, srv.URL, true)
	got, err := src.Paths(context.Background(), []string{srv.URL + "/sitemap.xml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"/", "/about", "/contact", "/pricing", "/blog/post"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSitemapSource_GzipLeaf(t *testing.T) {
	// WHAT: A .gz sitemap is decompressed before parsing.
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml.gz", func(w http.ResponseWriter, r *http.Request) {
		gz := gzip.NewWriter(w)
		fmt.Fprint(gz, leafSitemap(srv.URL+"/zipped"))
		gz.Close()
	})

	src := newSitemapSource(t, srv.URL, true)
	got, err := src.Paths(context.Background(), []string{srv.URL + "/sitemap.xml.gz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "/zipped" {
		t.Errorf("got %v, want [/zipped]", got)
	}
}

func TestSitemapSource_FailedSitemapIsSkipped(t *testing.T) {
	// WHAT: One broken sitemap does not abort the run; others still
	// contribute.
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/good.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, leafSitemap(srv.URL+"/ok"))
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	src := newSitemapSource(t, srv.URL, true)
	got, err := src.Paths(context.Background(), []string{srv.URL + "/broken.xml", srv.URL + "/good.xml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "/ok" {
		t.Errorf("got %v, want [/ok]", got)
	}
}

func TestSitemapSource_CycleGuard(t *testing.T) {
	// WHAT: An index that points at itself terminates.
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/loop.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexSitemap(srv.URL+"/loop.xml", srv.URL+"/leaf.xml"))
	})
	mux.HandleFunc("/leaf.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, leafSitemap(srv.URL+"/page"))
	})

	src := newSitemapSource(t, srv.URL, true)
	got, err := src.Paths(context.Background(), []string{srv.URL + "/loop.xml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "/page" {
		t.Errorf("got %v, want [/page]", got)
	}
}

func TestSitemapSource_StrictOriginFilter(t *testing.T) {
	// WHAT: Strict mode drops locs on a foreign host; lenient keeps
	// their paths.
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, leafSitemap(srv.URL+"/mine", "https://elsewhere.invalid/theirs"))
	})

	strict := newSitemapSource(t, srv.URL, true)
	got, err := strict.Paths(context.Background(), []string{srv.URL + "/sitemap.xml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "/mine" {
		t.Errorf("strict: got %v, want [/mine]", got)
	}

	lenient := newSitemapSource(t, srv.URL, false)
	got, err = lenient.Paths(context.Background(), []string{srv.URL + "/sitemap.xml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("lenient: got %v, want two paths", got)
	}
}
