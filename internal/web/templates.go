package web

import (
	"embed"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/sweetshop-dev/sweetshop/pkg/api"
	"github.com/sweetshop-dev/sweetshop/pkg/store"
)

//go:embed templates/*.html static/*
var assets embed.FS

// pages are parsed once at startup; each page gets its own set built on
// the shared layout.
var pages = func() map[string]*template.Template {
	names := []string{"index", "login", "register", "admin"}
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.ParseFS(assets,
			"templates/layout.html", "templates/"+name+".html"))
	}
	return out
}()

// pageData is the base payload every view receives.
type pageData struct {
	User   *store.Session
	Error  string
	Notice string
}

type indexData struct {
	pageData
	Sweets []api.Sweet
	Filter api.SearchFilter
	Sort   string
}

type authData struct {
	pageData
	Username string
	Email    string
}

type adminData struct {
	pageData
	Sweets []api.Sweet
	Edit   *api.Sweet
}

// render writes a page. Rendering failures are server bugs; they are
// logged and answered with a bare 500.
func (s *Server) render(w http.ResponseWriter, page string, data any) {
	tmpl, ok := pages[page]
	if !ok {
		s.logger.Error("unknown page", "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.Error("render failed", "page", page, "error", err)
	}
}

// basePage builds the shared payload from the browser session.
func basePage(bs *browserSession, errMsg, notice string) pageData {
	data := pageData{Error: errMsg, Notice: notice}
	if session, ok := bs.session.Current(); ok {
		data.User = &session
	}
	return data
}

// sortByPrice returns a copy sorted by price. The sort is stable and
// touches nothing but the order; "" leaves server order untouched.
func sortByPrice(sweets []api.Sweet, dir string) []api.Sweet {
	out := append([]api.Sweet(nil), sweets...)
	switch dir {
	case "price_asc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "price_desc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out
}

// handleStatic serves the embedded CSS/JS under /static/.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	if strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, assets, name)
}
