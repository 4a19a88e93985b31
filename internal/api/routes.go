package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(Logging(handler.logger), Recover(handler.logger))

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	// Account routes
	r.HandleFunc("/", handler.Index).Methods(http.MethodGet)
	r.HandleFunc("/register", handler.RegisterPage).Methods(http.MethodGet)
	r.HandleFunc("/register", handler.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", handler.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", handler.Login).Methods(http.MethodPost)

	// Journal routes require a bearer token
	authed := Auth(handler.auth, handler.logger)
	r.Handle("/deposit", authed(http.HandlerFunc(handler.Deposit))).Methods(http.MethodPost)
	r.Handle("/withdraw", authed(http.HandlerFunc(handler.Withdraw))).Methods(http.MethodPost)
	r.Handle("/daily/{day}", authed(http.HandlerFunc(handler.DailyPage))).Methods(http.MethodGet)
	r.Handle("/daily/{day}", authed(http.HandlerFunc(handler.SaveDaily))).Methods(http.MethodPost)
	r.Handle("/dashboard", authed(http.HandlerFunc(handler.Dashboard))).Methods(http.MethodGet)

	return r
}
