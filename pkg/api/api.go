// Package api is the HTTP surface: routing, request decoding, session
// checks and error-to-status mapping. All domain behavior lives in the
// services it delegates to.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/survivzhang/Tarot-Reading-Platform/internal/region"
	"github.com/survivzhang/Tarot-Reading-Platform/internal/session"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/ledger"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/repository/store"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/service/notify"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/service/payments"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/service/readings"
)

// Poll contract for reading status: clients poll GET /readings/{id} at
// this interval, giving up after this many attempts.
const (
	PollIntervalSeconds = 2
	MaxPollAttempts     = 60
)

var timeNow = time.Now

type Handler struct {
	readings *readings.Service
	payments *payments.Service
	store    *store.Store
	sessions *session.Manager
	notifier notify.Notifier
}

func NewHandler(r *readings.Service, p *payments.Service, st *store.Store, sm *session.Manager, n notify.Notifier) *Handler {
	return &Handler{readings: r, payments: p, store: st, sessions: sm, notifier: n}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", h.HandleSignup)
		r.Post("/auth/signin", h.HandleSignin)

		r.Post("/readings", h.HandleCreateReading)
		r.Get("/readings/{id}", h.HandleGetReading)
		r.Get("/cards", h.HandleListCards)

		r.Get("/user/credits", h.HandleCredits)
		r.Get("/user/history", h.HandleHistory)

		r.Get("/payments/pricing", h.HandlePricing)
		r.Post("/payments/create-order", h.HandleCreateOrder)
		r.Post("/payments/webhook", h.HandleWebhook)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

// respondDomainError maps service errors onto the HTTP taxonomy.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoCredits):
		respondWithError(w, http.StatusPaymentRequired, "No reading credits available")
	case errors.Is(err, domain.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrReadingNotFound):
		respondWithError(w, http.StatusNotFound, "Reading not found")
	case errors.Is(err, domain.ErrTransactionNotFound):
		respondWithError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, domain.ErrUserExists):
		respondWithError(w, http.StatusConflict, "User already exists")
	default:
		log.Printf("api: internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

type SignupRequest struct {
	Email      string `json:"email"`
	ReferredBy string `json:"referred_by,omitempty"`
}

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Email, region.Detect(r), ledger.SignupFreeReadings)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if req.ReferredBy != "" && req.ReferredBy != user.ID {
		if _, rerr := h.store.GetUser(r.Context(), req.ReferredBy); rerr == nil {
			if rerr := h.store.CreateReferral(r.Context(), req.ReferredBy, user.ID); rerr != nil {
				log.Printf("api: recording referral for %s: %v", user.ID, rerr)
			}
		}
	}
	if err := h.sessions.Issue(w, user.ID, user.Email); err != nil {
		log.Printf("api: issuing session for %s: %v", user.ID, err)
	}
	if err := h.notifier.SendWelcome(r.Context(), user.Email, user.FreeReadingsLeft); err != nil {
		log.Printf("api: welcome email for %s: %v", user.ID, err)
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"user_id":            user.ID,
		"email":              user.Email,
		"free_readings_left": user.FreeReadingsLeft,
	})
}

type SigninRequest struct {
	Email string `json:"email"`
}

func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}
	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if err := h.sessions.Issue(w, user.ID, user.Email); err != nil {
		log.Printf("api: issuing session for %s: %v", user.ID, err)
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":            user.ID,
		"email":              user.Email,
		"free_readings_left": user.FreeReadingsLeft,
		"paid_readings_left": user.PaidReadingsLeft,
		"is_lifetime_member": user.IsLifetimeMember,
	})
}

type drawnCardRequest struct {
	CardID     int  `json:"card_id"`
	Position   int  `json:"position"`
	IsReversed bool `json:"is_reversed"`
}

type CreateReadingRequest struct {
	Email      string             `json:"email"`
	Question   string             `json:"question"`
	Language   domain.Language    `json:"language"`
	Cards      []drawnCardRequest `json:"cards"`
	ReferrerID string             `json:"referrer_id,omitempty"`
}

func (h *Handler) HandleCreateReading(w http.ResponseWriter, r *http.Request) {
	var req CreateReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cards := make([]domain.DrawnCard, 0, len(req.Cards))
	for _, c := range req.Cards {
		cards = append(cards, domain.DrawnCard{
			CardID:     c.CardID,
			Position:   c.Position,
			IsReversed: c.IsReversed,
		})
	}

	result, err := h.readings.Create(r.Context(), readings.CreateInput{
		Email:      req.Email,
		Question:   req.Question,
		Language:   req.Language,
		Region:     region.Detect(r),
		Cards:      cards,
		ReferrerID: req.ReferrerID,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if result.NewUser {
		if err := h.sessions.Issue(w, result.UserID, req.Email); err != nil {
			log.Printf("api: issuing session for %s: %v", result.UserID, err)
		}
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"reading_id": result.ReadingID,
		"status":     result.Status,
		"poll": map[string]int{
			"interval_seconds": PollIntervalSeconds,
			"max_attempts":     MaxPollAttempts,
		},
	})
}

func (h *Handler) HandleGetReading(w http.ResponseWriter, r *http.Request) {
	reading, err := h.readings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reading)
}

func (h *Handler) HandleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.store.ListCards(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, cards)
}

func (h *Handler) HandleCredits(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.FromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.store.GetUser(r.Context(), sess.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	now := timeNow()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"free_readings_left":          user.FreeReadingsLeft,
		"paid_readings_left":          user.PaidReadingsLeft,
		"is_lifetime_member":          user.IsLifetimeMember,
		"lifetime_readings_this_year": ledger.EffectiveYearReadings(*user, now),
		"total_readings_available":    ledger.TotalAvailable(*user, now),
	})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.FromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, total, err := h.readings.History(r.Context(), sess.UserID, page, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	totalPages := (total + limit - 1) / limit
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"readings": list,
		"pagination": map[string]int{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

func (h *Handler) HandlePricing(w http.ResponseWriter, r *http.Request) {
	reg := region.Detect(r)
	if sess, err := h.sessions.FromRequest(r); err == nil {
		if user, uerr := h.store.GetUser(r.Context(), sess.UserID); uerr == nil {
			reg = user.Region
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"region":  reg,
		"options": ledger.Options(reg),
		"tips":    ledger.TipOptions(reg),
	})
}

type CreateOrderRequest struct {
	Type     domain.TransactionType `json:"type"`
	Amount   float64                `json:"amount"`
	Currency domain.Currency        `json:"currency"`
	Provider domain.PaymentProvider `json:"provider"`
}

func (h *Handler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.FromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	order, err := h.payments.CreateOrder(r.Context(), sess.UserID, payments.CreateOrderInput{
		Type:     req.Type,
		Amount:   req.Amount,
		Currency: req.Currency,
		Provider: req.Provider,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, order)
}

type WebhookRequest struct {
	ProviderOrderID string `json:"provider_order_id"`
	Status          string `json:"status"`
}

func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}
	settlement, err := h.payments.HandleWebhook(r.Context(), req.ProviderOrderID, req.Status)
	if err != nil {
		// Not-found and other failures surface as errors so the provider's
		// retry mechanism redelivers.
		respondDomainError(w, err)
		return
	}
	if settlement.AlreadyProcessed {
		respondWithJSON(w, http.StatusOK, map[string]string{"message": "Already processed"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Webhook processed"})
}
