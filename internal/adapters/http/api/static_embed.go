package api

import (
	"embed"
	"html/template"
	"time"
)

//go:embed static/dashboard.html
var staticFS embed.FS

var dashboardTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"scoreClass": scoreClass,
	"when":       when,
}).ParseFS(staticFS, "static/dashboard.html"))

func scoreClass(score float64) string {
	switch {
	case score >= 80:
		return "good"
	case score >= 60:
		return "warn"
	default:
		return "bad"
	}
}

func when(ms int64) string {
	if ms <= 0 {
		return "unknown"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04 UTC")
}
