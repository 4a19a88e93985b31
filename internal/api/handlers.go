package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/trade-journal/internal/auth"
	"github.com/trogers1052/trade-journal/internal/commentary"
	"github.com/trogers1052/trade-journal/internal/database"
	"github.com/trogers1052/trade-journal/internal/ledger"
	"github.com/trogers1052/trade-journal/internal/models"
	"go.uber.org/zap"
)

const internalErrorMessage = "internal server error"

const publishTimeout = 5 * time.Second

// maxMoney is the first value that no longer fits NUMERIC(12,2)
var maxMoney = decimal.New(1, 10)

// AuthService is the account surface the handlers need
type AuthService interface {
	Authenticator
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// Store is the persistence surface the handlers need
type Store interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	UpsertDailyTrade(ctx context.Context, d *models.DailyTrade) error
	GetDailyTrade(ctx context.Context, userID int64, day time.Time) (*models.DailyTrade, error)
	ListTables(ctx context.Context) ([]string, error)
	CountUsers(ctx context.Context) (int64, error)
}

// Ledger computes per-user figures
type Ledger interface {
	Summary(ctx context.Context, userID int64) (ledger.Summary, error)
	Reasons(ctx context.Context, userID int64) (ledger.Reasons, error)
}

// Advisor produces dashboard commentary
type Advisor interface {
	Commentary(ctx context.Context, profitReasons, lossReasons []string) commentary.Commentary
}

// EventPublisher announces committed writes
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, t *models.Transaction) error
	PublishDailyTradeUpserted(ctx context.Context, d *models.DailyTrade) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store    Store
	auth     AuthService
	ledger   Ledger
	advisor  Advisor
	events   EventPublisher
	logger   *zap.Logger
	validate *validator.Validate
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(store Store, authSvc AuthService, ledgerSvc Ledger, advisor Advisor, events EventPublisher, logger *zap.Logger) *Handler {
	return &Handler{
		store:    store,
		auth:     authSvc,
		ledger:   ledgerSvc,
		advisor:  advisor,
		events:   events,
		logger:   logger,
		validate: validator.New(),
	}
}

type credentialsForm struct {
	Username string `validate:"required,max=80"`
	Password string `validate:"required"`
}

type amountForm struct {
	Amount string `validate:"required,numeric"`
}

type dailyForm struct {
	Profit       string `validate:"omitempty,numeric"`
	Loss         string `validate:"omitempty,numeric"`
	ReasonProfit string
	ReasonLoss   string
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err == nil {
		var count int64
		count, err = h.store.CountUsers(r.Context())
		if err == nil {
			respondJSON(w, http.StatusOK, map[string]any{
				"status": "ok",
				"database": map[string]any{
					"tables":     tables,
					"user_count": count,
				},
			})
			return
		}
	}

	h.logger.Error("Health check failed", zap.Error(err))
	respondJSON(w, http.StatusInternalServerError, map[string]string{
		"status": "error",
		"error":  "database unavailable",
	})
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// RegisterPage handles GET /register
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "register", nil)
}

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	form := credentialsForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validate.Struct(form); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	_, err := h.auth.Register(r.Context(), form.Username, form.Password)
	if errors.Is(err, auth.ErrUsernameConflict) {
		respondError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	if errors.Is(err, auth.ErrPasswordTooLong) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginPage handles GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "login", nil)
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form := credentialsForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validate.Struct(form); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	token, err := h.auth.Login(r.Context(), form.Username, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Deposit handles POST /deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.recordTransaction(w, r, models.TransactionTypeDeposit)
}

// Withdraw handles POST /withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.recordTransaction(w, r, models.TransactionTypeWithdraw)
}

func (h *Handler) recordTransaction(w http.ResponseWriter, r *http.Request, kind models.TransactionType) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing/invalid Authorization header")
		return
	}

	form := amountForm{Amount: strings.TrimSpace(r.PostFormValue("amount"))}
	if err := h.validate.Struct(form); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	amount, err := parseMoney("amount", form.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !amount.IsPositive() {
		respondError(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}

	tx := &models.Transaction{UserID: user.ID, Type: kind, Amount: amount}
	if err := h.store.CreateTransaction(r.Context(), tx); err != nil {
		h.internalError(w, r, err)
		return
	}

	h.publish(r, func(ctx context.Context) error {
		return h.events.PublishTransactionRecorded(ctx, tx)
	})

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type dailyView struct {
	Day    string             `json:"day"`
	Record *models.DailyTrade `json:"record"`
}

// DailyPage handles GET /daily/{day}
func (h *Handler) DailyPage(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing/invalid Authorization header")
		return
	}

	day, ok := parseDayVar(w, r)
	if !ok {
		return
	}

	record, err := h.store.GetDailyTrade(r.Context(), user.ID, day)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.internalError(w, r, err)
		return
	}

	view := dailyView{Day: day.Format(models.DateLayout), Record: record}
	if wantsJSON(r) {
		respondJSON(w, http.StatusOK, view)
		return
	}
	h.renderPage(w, r, "daily", view)
}

// SaveDaily handles POST /daily/{day}
func (h *Handler) SaveDaily(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing/invalid Authorization header")
		return
	}

	day, ok := parseDayVar(w, r)
	if !ok {
		return
	}

	form := dailyForm{
		Profit:       strings.TrimSpace(r.PostFormValue("profit")),
		Loss:         strings.TrimSpace(r.PostFormValue("loss")),
		ReasonProfit: r.PostFormValue("reason_profit"),
		ReasonLoss:   r.PostFormValue("reason_loss"),
	}
	if err := h.validate.Struct(form); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	profit, err := parseOptionalMoney("profit", form.Profit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	loss, err := parseOptionalMoney("loss", form.Loss)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record := &models.DailyTrade{
		UserID:       user.ID,
		TradeDate:    day,
		Profit:       profit,
		Loss:         loss,
		ReasonProfit: form.ReasonProfit,
		ReasonLoss:   form.ReasonLoss,
	}
	if err := h.store.UpsertDailyTrade(r.Context(), record); err != nil {
		h.internalError(w, r, err)
		return
	}

	h.publish(r, func(ctx context.Context) error {
		return h.events.PublishDailyTradeUpserted(ctx, record)
	})

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

type dashboardView struct {
	Username   string                `json:"username"`
	Summary    ledger.Summary        `json:"summary"`
	Commentary commentary.Commentary `json:"commentary"`
}

// Dashboard handles GET /dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing/invalid Authorization header")
		return
	}

	summary, err := h.ledger.Summary(r.Context(), user.ID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	reasons, err := h.ledger.Reasons(r.Context(), user.ID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	view := dashboardView{
		Username:   user.Username,
		Summary:    summary,
		Commentary: h.advisor.Commentary(r.Context(), reasons.Profit, reasons.Loss),
	}
	if wantsJSON(r) {
		respondJSON(w, http.StatusOK, view)
		return
	}
	h.renderPage(w, r, "dashboard", view)
}

// publish sends an event after a committed write. Failures are logged only.
func (h *Handler) publish(r *http.Request, send func(ctx context.Context) error) {
	if h.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), publishTimeout)
	defer cancel()

	if err := send(ctx); err != nil {
		h.logger.Warn("Failed to publish journal event",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err))
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("Request failed",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	respondError(w, http.StatusInternalServerError, internalErrorMessage)
}

func parseDayVar(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := mux.Vars(r)["day"]
	day, err := models.ParseDay(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
		return time.Time{}, false
	}
	return day, true
}

// parseMoney accepts a non-negative amount with at most two decimal places
// that fits the NUMERIC(12,2) money columns
func parseMoney(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a number", field)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", field)
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("%s must have at most two decimal places", field)
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return decimal.Zero, fmt.Errorf("%s is too large", field)
	}
	return d, nil
}

func parseOptionalMoney(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return parseMoney(field, raw)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "numeric":
		return field + " must be a number"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
