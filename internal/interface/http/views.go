package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/airboard/internal/domain/dashboard"
	"github.com/yanqian/airboard/internal/infra/reference"
)

//go:embed templates
var templatesFS embed.FS

// Pages renders the server side HTML views.
type Pages struct {
	tmpl  *template.Template
	guide *reference.Guide
}

type pageData struct {
	View           dashboard.View
	Guide          template.HTML
	InfoURL        string
	StreamInterval string
}

// NewPages parses the embedded templates. Call during startup.
func NewPages(guide *reference.Guide) (*Pages, error) {
	return loadPages(templatesFS, "templates", guide)
}

func loadPages(fsys fs.FS, dir string, guide *reference.Guide) (*Pages, error) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("pages").Funcs(templateFuncs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{tmpl: tmpl, guide: guide}, nil
}

var templateFuncs = template.FuncMap{
	"clock": func(ts time.Time) string {
		if ts.IsZero() {
			return "unknown"
		}
		return ts.Local().Format("2006-01-02 15:04:05")
	},
	"celsius": func(v float64) string {
		return fmt.Sprintf("%.1f°C", v)
	},
	"css": func(v string) template.CSS {
		// Colors come from the fixed tier table.
		return template.CSS(v)
	},
}

func (p *Pages) render(w io.Writer, name string, data pageData) error {
	return p.tmpl.ExecuteTemplate(w, name, data)
}

func (p *Pages) data(view dashboard.View, interval time.Duration) pageData {
	data := pageData{
		View:           view,
		InfoURL:        reference.InfoURL,
		StreamInterval: interval.String(),
	}
	if p.guide != nil {
		data.Guide = p.guide.HTML
	}
	return data
}

// Index renders the full dashboard page.
func (h *Handler) Index(c *gin.Context) {
	h.renderView(c, "dashboard.html")
}

// CardsPartial renders only the AQI and temperature cards for in-place refresh.
func (h *Handler) CardsPartial(c *gin.Context) {
	h.renderView(c, "cards")
}

// About renders the AQI explainer.
func (h *Handler) About(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.render(c.Writer, "about.html", h.pages.data(dashboard.View{}, h.stream.DefaultInterval)); err != nil {
		h.logger.Error("render about page failed", "error", err)
	}
}

func (h *Handler) renderView(c *gin.Context, name string) {
	view, err := h.dashboardSvc.View(c.Request.Context())
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.render(c.Writer, name, h.pages.data(view, h.stream.DefaultInterval)); err != nil {
		h.logger.Error("render page failed", "template", name, "error", err)
	}
}
