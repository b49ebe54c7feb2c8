// Package report persists comparison output: the image tree and the
// static HTML summary, plus an optional HTTP serve mode for browsing
// the result.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

// Result is one completed (path, viewport) comparison. It is emitted
// only when both captures and the diff succeeded.
type Result struct {
	Path               string
	Viewport           string
	Width              int
	Height             int
	MismatchedPixels   int
	MismatchPercentage float64

	// Image locations relative to the report document.
	BaseImage      string
	CompareImage   string
	DiffImage      string
	HighlightImage string // empty when highlighting is disabled
}

// Options echoes the active configuration into the report's metadata
// block.
type Options struct {
	FullPage      bool
	Headless      bool
	Timezone      string
	Locale        string
	FreezeTime    string
	Channel       string
	HideSelectors []string
	MaxPages      int
	MaxDepth      int
	KeepQuery     bool
	Excludes      []string
}

// Meta is the report header.
type Meta struct {
	GeneratedAt time.Time
	BaseURL     string
	CompareURL  string
	Viewports   []string
	Options     Options
}

// ImagesDirName is the subdirectory of the output directory holding
// captures.
const ImagesDirName = "images"

// ReportFileName is the HTML document written into the output
// directory.
const ReportFileName = "report.html"

// EnsureDirs creates the output tree.
func EnsureDirs(outDir string) error {
	if err := os.MkdirAll(filepath.Join(outDir, ImagesDirName), 0o755); err != nil {
		return fmt.Errorf("report: ensure dirs: %w", err)
	}
	return nil
}

// Write renders the report document into outDir and returns its path.
func Write(outDir string, meta Meta, results []Result) (string, error) {
	path := filepath.Join(outDir, ReportFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	data := struct {
		Meta    Meta
		Results []Result
		Total   int
	}{Meta: meta, Results: results, Total: len(results)}

	if err := reportTmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("report: render: %w", err)
	}
	return path, nil
}

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"rfc3339": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"join":    joinComma,
}).Parse(reportHTML))

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

const reportHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Visual Comparison Report</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
  :root { color-scheme: light dark; }
  html, body { margin: 0; padding: 0; }
  body { font-family: system-ui, -apple-system, Segoe UI, Roboto, Arial, sans-serif; }
  h1, h2, h3 { margin: 0.5rem 0; }
  .meta { margin: 12px; color: #666; font-size: 0.95rem; }
  .grid { display: grid; grid-template-columns: 1fr; gap: 16px; padding: 12px; }
  .card { border: none; border-radius: 0; padding: 0; overflow: hidden; }
  .tags { display: flex; gap: 8px; flex-wrap: wrap; margin: 0 0 8px 0; padding: 0 4px; }
  .tag { background: #f1f5f9; border: 1px solid #e2e8f0; color: #334155; padding: 2px 8px; border-radius: 999px; font-size: 12px; }
  .row { display: grid; grid-template-columns: repeat(2, minmax(0, 1fr)); gap: 0; }
  .row > div { margin: 0; padding: 0; }
  .row img { width: 100%; height: auto; display: block; border: none; border-radius: 0; background: #fff; }
  .footer { margin: 12px; color: #777; font-size: 0.9rem; }
</style>
</head>
<body>
  <h1 style="margin:12px;">Visual Comparison Report</h1>
  <div class="meta">
    <div>Generated: {{rfc3339 .Meta.GeneratedAt}}</div>
    <div>Base: {{.Meta.BaseURL}}</div>
    <div>Compare: {{.Meta.CompareURL}}</div>
    <div>Viewports: {{join .Meta.Viewports}}</div>
    <div>Options: FullPage={{.Meta.Options.FullPage}}, Headless={{.Meta.Options.Headless}}, Timezone={{.Meta.Options.Timezone}}, Locale={{.Meta.Options.Locale}}, FreezeTime={{.Meta.Options.FreezeTime}}, Hide={{join .Meta.Options.HideSelectors}}</div>
    <div>Total cases: {{.Total}}</div>
  </div>
  <div class="grid">
  {{range .Results}}
    <div class="card">
      <div class="tags">
        <span class="tag">Path: <strong>{{.Path}}</strong></span>
        <span class="tag">Viewport: {{.Viewport}}</span>
        <span class="tag">Size: {{.Width}}&times;{{.Height}}</span>
        <span class="tag">Diff: {{.MismatchPercentage}}% ({{.MismatchedPixels}} px)</span>
      </div>
      <div class="row">
        <div>
          <h3 style="padding: 4px 8px;">Base</h3>
          <img loading="lazy" src="{{.BaseImage}}">
        </div>
        <div>
          <h3 style="padding: 4px 8px;">Compare</h3>
          <img loading="lazy" src="{{.CompareImage}}">
        </div>
      </div>
      {{if .HighlightImage}}
      <div class="row">
        <div>
          <h3 style="padding: 4px 8px;">Diff</h3>
          <img loading="lazy" src="{{.DiffImage}}">
        </div>
        <div>
          <h3 style="padding: 4px 8px;">Highlight</h3>
          <img loading="lazy" src="{{.HighlightImage}}">
        </div>
      </div>
      {{end}}
    </div>
  {{end}}
  </div>
  <div class="footer">
    Tip: Hide dynamic overlays with selectors (cookie banners, chat). Use exclusion patterns to keep noisy routes out of the crawl.
  </div>
</body>
</html>
`
