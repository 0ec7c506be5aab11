package httpapi

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

type dashboardData struct {
	Sessions     int
	TotalRecords int
}

// handleDashboard renders the status page.
func (s *Server) handleDashboard(c echo.Context) error {
	stats := s.sessions.Stats()

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return dashboardTmpl.Execute(c.Response(), dashboardData{
		Sessions:     stats.Sessions,
		TotalRecords: stats.TotalRecords,
	})
}
