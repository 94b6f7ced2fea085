package daemon

import (
	"embed"
	"html/template"

	"vuoro/internal/api"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const adminRefreshMS = 5000

type displayPage struct {
	Window int
	PollMS int
}

type closedPage struct {
	Message string
}

type adminPage struct {
	Queue     api.AdminQueue
	RefreshMS int
}
