package http

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stockwatch/internal/middleware"
	"stockwatch/internal/services"
	"stockwatch/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// flashCookieName carries a one-shot message across a redirect
const flashCookieName = "stockwatch_flash"

// HTMLHandler serves the server-rendered pages
type HTMLHandler struct {
	users     *services.UserService
	stocks    *services.StockService
	wallet    *services.WalletService
	templates *template.Template
	logger    *slog.Logger
}

// NewHTMLHandler creates the HTML page handler
func NewHTMLHandler(users *services.UserService, stocks *services.StockService, wallet *services.WalletService, logger *slog.Logger) (*HTMLHandler, error) {
	funcs := template.FuncMap{
		"money": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return strconv.FormatFloat(*v, 'f', 2, 64)
		},
	}

	templates, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &HTMLHandler{
		users:     users,
		stocks:    stocks,
		wallet:    wallet,
		templates: templates,
		logger:    logger.With(slog.String("component", "html_handler")),
	}, nil
}

// Routes returns the public HTML routes
func (h *HTMLHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Home)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Get("/stocks/search", h.StockForm)

	return r
}

// ProtectedRoutes returns HTML routes that require a session
func (h *HTMLHandler) ProtectedRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Wallet)
	r.Post("/transactions", h.RecordTransaction)

	return r
}

// pageData is the common template payload
type pageData struct {
	Title    string
	Error    string
	Flash    string
	Username string
	Data     interface{}
}

func (h *HTMLHandler) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	data.Flash = popFlash(w, r)
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		data.Username = claims.Username
	}

	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "template render failed",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}

// Home handles GET /
func (h *HTMLHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "home.html", pageData{Title: "Home"})
}

// RegisterForm handles GET /register
func (h *HTMLHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", pageData{Title: "Register"})
}

// Register handles POST /register. On success the browser is redirected
// to the login page with a flash message.
func (h *HTMLHandler) Register(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.render(w, r, "register.html", pageData{Title: "Register", Error: "Username and password are required."})
		return
	}

	if _, err := h.users.Register(r.Context(), username, password); err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			h.render(w, r, "register.html", pageData{Title: "Register", Error: "Username already registered!"})
			return
		}
		h.render(w, r, "register.html", pageData{Title: "Register", Error: "Registration failed, please try again."})
		return
	}

	setFlash(w, "Account created, you can sign in now.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginForm handles GET /login
func (h *HTMLHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", pageData{Title: "Login"})
}

// Login handles POST /login. On success the JWT is stored in an HttpOnly
// session cookie and the browser is redirected to the wallet page.
func (h *HTMLHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	token, _, err := h.users.Login(r.Context(), username, password)
	if err != nil {
		h.render(w, r, "login.html", pageData{Title: "Login", Error: "Invalid username or password."})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.users.TokenTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	setFlash(w, "Welcome back, "+username+"!")
	http.Redirect(w, r, "/wallet", http.StatusFound)
}

// Logout handles GET /logout
func (h *HTMLHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// stockPageData carries the quote lookup result
type stockPageData struct {
	Symbol string
	Quote  *domain.Quote
}

// StockForm handles GET /stocks/search. With a symbol query parameter it resolves
// and renders the quote.
func (h *HTMLHandler) StockForm(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		h.render(w, r, "stock_search.html", pageData{Title: "Stock Search"})
		return
	}

	quote, err := h.stocks.GetQuote(r.Context(), symbol)
	if err != nil {
		msg := "Could not retrieve a quote, please try again later."
		if errors.Is(err, services.ErrStockNotFound) {
			msg = "No stock found for symbol " + domain.NormalizeSymbol(symbol) + "."
		}
		h.render(w, r, "stock_search.html", pageData{Title: "Stock Search", Error: msg, Data: stockPageData{Symbol: symbol}})
		return
	}

	h.render(w, r, "stock_search.html", pageData{
		Title: "Stock Search",
		Data:  stockPageData{Symbol: quote.Symbol, Quote: quote},
	})
}

// walletPageData carries the wallet view
type walletPageData struct {
	Holdings     []domain.Holding
	Transactions []domain.Transaction
}

// Wallet handles GET /wallet
func (h *HTMLHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	holdings, err := h.wallet.Holdings(r.Context(), userID)
	if err != nil {
		h.render(w, r, "wallet.html", pageData{Title: "Wallet", Error: "Failed to load holdings."})
		return
	}

	transactions, err := h.wallet.History(r.Context(), userID)
	if err != nil {
		h.render(w, r, "wallet.html", pageData{Title: "Wallet", Error: "Failed to load history."})
		return
	}

	h.render(w, r, "wallet.html", pageData{
		Title: "Wallet",
		Data:  walletPageData{Holdings: holdings, Transactions: transactions},
	})
}

// RecordTransaction handles POST /wallet/transactions from the wallet form
func (h *HTMLHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	quantity, err1 := parseFormFloat(r, "quantity")
	unitPrice, err2 := parseFormFloat(r, "unit_price")
	if err1 != nil || err2 != nil {
		setFlash(w, "Quantity and price must be numbers.")
		http.Redirect(w, r, "/wallet", http.StatusFound)
		return
	}

	_, err := h.wallet.Record(r.Context(), userID,
		r.FormValue("symbol"),
		domain.Operation(r.FormValue("operation")),
		quantity, unitPrice,
	)
	if err != nil {
		setFlash(w, "Could not record the transaction: "+err.Error())
	} else {
		setFlash(w, "Transaction recorded.")
	}

	http.Redirect(w, r, "/wallet", http.StatusFound)
}

func parseFormFloat(r *http.Request, field string) (float64, error) {
	return strconv.ParseFloat(r.FormValue(field), 64)
}

// setFlash stores a one-shot message readable by the next page render
func setFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

// popFlash reads and clears the flash cookie
func popFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}
