package view

import (
	"bytes"
	"html/template"
	"time"
)

// SharedEntryPageData provides the fields rendered on a publicly shared entry.
type SharedEntryPageData struct {
	Title          string
	URL            string
	DomainName     string
	Language       string
	PreviewPicture string
	ReadingTime    int
	Content        string
	Tags           []string
	SavedAt        time.Time
}

var sharedEntryTmpl = template.Must(template.New("shared_entry").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.UTC().Format("2 Jan 2006") },
}).Parse(`
<!DOCTYPE html>
<html lang="{{if .Language}}{{.Language}}{{else}}en{{end}}">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<meta name="robots" content="noindex" />
	<title>{{.Title}}</title>
	{{if .PreviewPicture}}<meta property="og:image" content="{{.PreviewPicture}}" />{{end}}
	<meta property="og:title" content="{{.Title}}" />
	<style>
		:root {
			--bg: #f7f5f0;
			--card: #ffffff;
			--border: rgba(15, 23, 42, 0.1);
			--text: #1f2933;
			--muted: #6b7280;
			--accent: #0369a1;
			font-family: Georgia, "Times New Roman", serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			background: var(--bg);
			color: var(--text);
		}
		main {
			width: min(760px, 94vw);
			margin: 40px auto;
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 14px;
			padding: 32px 36px;
		}
		h1 {
			font-size: 1.9rem;
			line-height: 1.25;
			margin: 0 0 10px;
		}
		.meta {
			font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
			font-size: 0.88rem;
			color: var(--muted);
			margin-bottom: 24px;
		}
		.meta a { color: var(--accent); }
		.tags span {
			display: inline-block;
			padding: 2px 10px;
			margin: 0 6px 6px 0;
			border-radius: 999px;
			background: rgba(3, 105, 161, 0.08);
		}
		iframe {
			width: 100%;
			min-height: 70vh;
			border: 0;
		}
	</style>
</head>
<body>
	<main>
		<h1>{{.Title}}</h1>
		<div class="meta">
			<a href="{{.URL}}" rel="noopener noreferrer">{{if .DomainName}}{{.DomainName}}{{else}}{{.URL}}{{end}}</a>
			{{if gt .ReadingTime 0}} · {{.ReadingTime}} min read{{end}}
			{{if not .SavedAt.IsZero}} · saved {{date .SavedAt}}{{end}}
		</div>
		{{if .Tags}}<div class="tags">{{range .Tags}}<span>{{.}}</span>{{end}}</div>{{end}}
		<iframe sandbox="" srcdoc="{{.Content}}" title="{{.Title}}"></iframe>
	</main>
</body>
</html>
`))

// RenderSharedEntryPage expands the shared entry template. The article body is
// rendered inside a sandboxed frame so fetched markup cannot run scripts.
func RenderSharedEntryPage(data SharedEntryPageData) (string, error) {
	var buf bytes.Buffer
	if err := sharedEntryTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
