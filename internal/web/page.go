package web

import (
	"html/template"
	"net/http"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Drive Explorer</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; max-width: 60rem; }
form { display: inline; }
button.link { background: none; border: none; color: #0b5fff; cursor: pointer; padding: 0; font: inherit; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
td, th { padding: .4rem .6rem; border-bottom: 1px solid #ddd; text-align: left; }
.notice { padding: .5rem .8rem; margin: .5rem 0; border-radius: 4px; }
.notice.info { background: #eef4ff; }
.notice.warning { background: #fff6e0; }
.notice.error { background: #fdecea; }
.download { padding: .8rem; margin: 1rem 0; background: #f4f4f4; border-radius: 4px; }
</style>
</head>
<body>
<h1>Drive Explorer</h1>
<nav>
{{- range $i, $c := .Breadcrumbs}}{{if $i}} / {{end}}
<form method="post" action="/api/breadcrumb"><input type="hidden" name="index" value="{{$i}}"><button class="link" type="submit">{{$c.Name}}</button></form>
{{- end}}
</nav>
{{range .Notices}}<div class="notice {{.Level}}">{{.Message}}</div>{{end}}
{{with .Download}}{{if eq .State "Ready"}}
<div class="download">{{.Filename}} is ready.
<a href="/api/download/save">Save</a>
<form method="post" action="/api/download/cancel"><button type="submit">Cancel</button></form></div>
{{else if eq .State "Failed"}}
<div class="download">{{.Message}}
<form method="post" action="/api/download/retry"><button type="submit">Retry</button></form>
<form method="post" action="/api/download/dismiss"><button type="submit">Dismiss</button></form></div>
{{end}}{{end}}
{{if .Empty}}<p>This folder is empty or could not be reached.</p>{{else}}
<table>
<thead><tr><th>Name</th><th>Size</th><th>Document number</th><th></th></tr></thead>
<tbody>
{{range .Folders}}<tr><td>
<form method="post" action="/api/open"><input type="hidden" name="folderId" value="{{.ID}}"><input type="hidden" name="name" value="{{.Name}}"><button class="link" type="submit">&#128193; {{.Name}}</button></form>
</td><td>{{.ChildCount}} items</td><td></td><td></td></tr>
{{end}}
{{range .Files}}<tr><td>{{.Name}}</td><td>{{.SizeText}}</td><td>{{.DocumentNumber}}</td><td>
<form method="post" action="/api/download"><input type="hidden" name="fileId" value="{{.ID}}"><button type="submit">Download</button></form>
</td></tr>
{{end}}
</tbody>
</table>
{{end}}
</body>
</html>
`))

var fatalTemplate = template.Must(template.New("fatal").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Drive Explorer</title></head>
<body style="font-family: system-ui, sans-serif; margin: 2rem;">
<h1>{{.Title}}</h1>
<pre>{{.Detail}}</pre>
<p>Fix the configuration and restart the explorer.</p>
</body>
</html>
`))

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	view := sessionFrom(r.Context()).Render(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, view); err != nil {
		s.log.Error().Err(err).Msg("Page render failed")
	}
}

func (s *Server) renderFatal(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := fatalTemplate.Execute(w, struct{ Title, Detail string }{title, detail}); err != nil {
		s.log.Debug().Err(err).Msg("Fatal page render failed")
	}
}
