package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sweetshop-dev/sweetshop/pkg/api"
)

// parseFilter extracts a search filter from query or form values.
// Unparseable prices are dropped rather than rejected; the browser's
// number inputs make them unlikely and a dropped bound is harmless.
func parseFilter(vals url.Values) api.SearchFilter {
	filter := api.SearchFilter{
		Name:     strings.TrimSpace(vals.Get("name")),
		Category: strings.TrimSpace(vals.Get("category")),
	}
	if raw := vals.Get("price_min"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.PriceMin = &v
		}
	}
	if raw := vals.Get("price_max"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.PriceMax = &v
		}
	}
	return filter
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)
	query := r.URL.Query()
	filter := parseFilter(query)

	var (
		sweets []api.Sweet
		err    error
	)
	if filter.IsZero() {
		sweets, err = bs.inventory.FetchAll(r.Context())
	} else {
		sweets, err = bs.inventory.Search(r.Context(), filter)
	}

	data := indexData{
		pageData: basePage(bs, query.Get("error"), query.Get("notice")),
		Sweets:   sortByPrice(sweets, query.Get("sort")),
		Filter:   filter,
		Sort:     query.Get("sort"),
	}
	if err != nil {
		// Show whatever the cache still holds alongside the error.
		data.Error = err.Error()
		data.Sweets = sortByPrice(bs.inventory.Sweets(), query.Get("sort"))
	}
	s.render(w, "index", data)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)
	if _, ok := bs.session.Current(); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, "login", authData{pageData: basePage(bs, r.URL.Query().Get("error"), "")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		s.render(w, "login", authData{
			pageData: basePage(bs, "Username and password are required", ""),
			Username: username,
		})
		return
	}

	if err := bs.session.Login(r.Context(), username, password); err != nil {
		s.render(w, "login", authData{
			pageData: basePage(bs, err.Error(), ""),
			Username: username,
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)
	if _, ok := bs.session.Current(); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, "register", authData{pageData: basePage(bs, "", "")})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)
	reg := api.Registration{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}

	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		s.render(w, "register", authData{
			pageData: basePage(bs, "All fields are required", ""),
			Username: reg.Username,
			Email:    reg.Email,
		})
		return
	}

	if err := bs.session.Register(r.Context(), reg); err != nil {
		s.render(w, "register", authData{
			pageData: basePage(bs, err.Error(), ""),
			Username: reg.Username,
			Email:    reg.Email,
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if bs, ok := s.sessions.lookup(r); ok {
		if err := bs.session.Logout(r.Context()); err != nil {
			s.logger.Warn("logout cleanup failed", "error", err)
		}
		s.sessions.drop(bs.id)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	bs, ok := s.sessions.lookup(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if _, loggedIn := bs.session.Current(); !loggedIn {
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Please log in to purchase"), http.StatusSeeOther)
		return
	}

	id := chi.URLParam(r, "id")
	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		redirectIndex(w, r, "quantity must be a positive number", "")
		return
	}

	notice := "Purchase complete"
	if sweet, found := bs.inventory.Get(id); found {
		notice = "Purchased " + strconv.Itoa(quantity) + " x " + sweet.Name
	}
	if err := bs.inventory.Purchase(r.Context(), id, quantity); err != nil {
		redirectIndex(w, r, err.Error(), "")
		return
	}
	s.hub.notifyRefresh()
	redirectIndex(w, r, "", notice)
}

// requireAdmin gates the admin console. It checks the cached session
// only; the backend re-checks authorization on every mutating call.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs, ok := s.sessions.lookup(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		session, loggedIn := bs.session.Current()
		if !loggedIn {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !session.IsAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)
	query := r.URL.Query()

	sweets, err := bs.inventory.FetchAll(r.Context())
	data := adminData{
		pageData: basePage(bs, query.Get("error"), query.Get("notice")),
		Sweets:   sweets,
	}
	if err != nil {
		data.Error = err.Error()
		data.Sweets = bs.inventory.Sweets()
	}
	if editID := query.Get("edit"); editID != "" {
		if sweet, ok := bs.inventory.Get(editID); ok {
			data.Edit = &sweet
		}
	}
	s.render(w, "admin", data)
}

// parseDraft reads the sweet form shared by create and update.
func parseDraft(r *http.Request) (api.SweetDraft, string) {
	draft := api.SweetDraft{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Description: strings.TrimSpace(r.FormValue("description")),
		ImageURL:    strings.TrimSpace(r.FormValue("image_url")),
	}
	if draft.Name == "" || draft.Category == "" {
		return draft, "Name and category are required"
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price <= 0 {
		return draft, "Price must be a positive number"
	}
	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil || quantity < 0 {
		return draft, "Quantity must be zero or more"
	}
	draft.Price = price
	draft.Quantity = quantity
	return draft, ""
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)
	draft, msg := parseDraft(r)
	if msg != "" {
		redirectAdmin(w, r, msg, "")
		return
	}
	sweet, err := bs.inventory.Create(r.Context(), draft)
	if err != nil {
		redirectAdmin(w, r, err.Error(), "")
		return
	}
	s.hub.notifyRefresh()
	redirectAdmin(w, r, "", "Created "+sweet.Name)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)
	draft, msg := parseDraft(r)
	if msg != "" {
		redirectAdmin(w, r, msg, "")
		return
	}
	sweet, err := bs.inventory.Update(r.Context(), chi.URLParam(r, "id"), draft)
	if err != nil {
		redirectAdmin(w, r, err.Error(), "")
		return
	}
	s.hub.notifyRefresh()
	redirectAdmin(w, r, "", "Updated "+sweet.Name)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)
	if err := bs.inventory.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		redirectAdmin(w, r, err.Error(), "")
		return
	}
	s.hub.notifyRefresh()
	redirectAdmin(w, r, "", "Sweet deleted")
}

func (s *Server) handleRestock(w http.ResponseWriter, r *http.Request) {
	bs := s.sessions.get(w, r)
	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		redirectAdmin(w, r, "quantity must be a positive number", "")
		return
	}
	if err := bs.inventory.Restock(r.Context(), chi.URLParam(r, "id"), quantity); err != nil {
		redirectAdmin(w, r, err.Error(), "")
		return
	}
	s.hub.notifyRefresh()
	redirectAdmin(w, r, "", "Stock updated")
}

func redirectIndex(w http.ResponseWriter, r *http.Request, errMsg, notice string) {
	http.Redirect(w, r, "/"+flashQuery(errMsg, notice), http.StatusSeeOther)
}

func redirectAdmin(w http.ResponseWriter, r *http.Request, errMsg, notice string) {
	http.Redirect(w, r, "/admin/"+flashQuery(errMsg, notice), http.StatusSeeOther)
}

func flashQuery(errMsg, notice string) string {
	vals := url.Values{}
	if errMsg != "" {
		vals.Set("error", errMsg)
	}
	if notice != "" {
		vals.Set("notice", notice)
	}
	if len(vals) == 0 {
		return ""
	}
	return "?" + vals.Encode()
}
