package board

import (
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// RenderTask writes the fragment of a single task. The full list renders each
// item through the same template.
func RenderTask(w io.Writer, v TaskView) error {
	return templates.ExecuteTemplate(w, "task", v)
}

// RenderList writes the task list container and the empty-state block.
func RenderList(w io.Writer, p Page) error {
	return templates.ExecuteTemplate(w, "list", p)
}

func RenderPage(w io.Writer, p Page) error {
	return templates.ExecuteTemplate(w, "page", p)
}

// PageComponent exposes the page as a templ component so it can be served with
// templ.Handler.
func PageComponent(p Page) templ.Component {
	return templ.FromGoHTML(templates.Lookup("page"), p)
}
