package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"spazapos/m/domain"
	"spazapos/m/internal/apperr"
	"spazapos/m/internal/credit"
	"spazapos/m/internal/payment"
	"spazapos/m/internal/pos"
	"spazapos/m/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	inventory *store.InventoryStore
	ledger    *store.SalesLedger
	payments  *store.PaymentStore
	processor *pos.Processor
	credit    *credit.Service
	payfast   *payment.Client
	logger    *zap.Logger
}

// New constructs a Handler.
func New(inventory *store.InventoryStore, ledger *store.SalesLedger, payments *store.PaymentStore,
	processor *pos.Processor, creditSvc *credit.Service, payfast *payment.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		inventory: inventory,
		ledger:    ledger,
		payments:  payments,
		processor: processor,
		credit:    creditSvc,
		payfast:   payfast,
		logger:    logger,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/health", h.health)

	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.listInventory)
		r.Post("/", h.addInventory)
		r.Post("/{id}/restock", h.restockInventory)
		r.Delete("/{id}", h.removeInventory)
	})

	r.Post("/sell", h.sell)
	r.Get("/sales-history", h.salesHistory)
	r.Get("/credit-score", h.creditScore)

	r.Route("/payment", func(r chi.Router) {
		r.Post("/checkout", h.paymentCheckout)
		r.Post("/notify", h.paymentNotify)
	})

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Inventory handlers

type addItemRequest struct {
	Name      string  `json:"name" validate:"required"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	Quantity  int64   `json:"quantity" validate:"gte=0"`
}

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) addInventory(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		h.respondError(w, r, appErr)
		return
	}
	item, err := h.inventory.Add(r.Context(), req.Name, req.UnitPrice, req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

type restockRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) restockInventory(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r)
	if appErr != nil {
		h.respondError(w, r, appErr)
		return
	}
	var req restockRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		h.respondError(w, r, appErr)
		return
	}
	quantity, err := h.inventory.AdjustQuantity(r.Context(), id, req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "quantity": quantity})
}

func (h *Handler) removeInventory(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r)
	if appErr != nil {
		h.respondError(w, r, appErr)
		return
	}
	if err := h.inventory.Remove(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Sale handlers

type sellRequest struct {
	ItemName       string   `json:"item_name" validate:"required"`
	Quantity       int64    `json:"quantity"`
	PaymentMethod  string   `json:"payment_method" validate:"required"`
	AmountReceived *float64 `json:"amount_received" validate:"omitempty,gte=0"`
	ChangeGiven    *float64 `json:"change_given" validate:"omitempty,gte=0"`
}

func (h *Handler) sell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		// A fractional quantity fails JSON decoding into the integer field.
		if _, ok := appErr.Details["quantity"]; ok && len(appErr.Details) == 1 {
			h.respondError(w, r, apperr.InvalidQuantity("quantity must be a positive integer"))
			return
		}
		h.respondError(w, r, appErr)
		return
	}

	rec, err := h.processor.Sell(r.Context(), pos.SaleInput{
		ItemName:       req.ItemName,
		Quantity:       req.Quantity,
		PaymentMethod:  req.PaymentMethod,
		AmountReceived: req.AmountReceived,
		ChangeGiven:    req.ChangeGiven,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (h *Handler) salesHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.respondError(w, r, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := h.ledger.Recent(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *Handler) creditScore(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.credit.Assess(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, assessment)
}

// Payment handlers

type checkoutRequest struct {
	ItemName string `json:"item_name" validate:"required"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) paymentCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		h.respondError(w, r, appErr)
		return
	}

	item, err := h.inventory.FindByName(r.Context(), req.ItemName)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	amount := item.UnitPrice * float64(req.Quantity)

	checkout, err := h.payfast.CreateCheckout(payment.CheckoutRequest{
		ItemName: item.Name,
		Amount:   amount,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if _, err := h.payments.CreatePending(r.Context(), domain.PendingPayment{
		MerchantPaymentID: checkout.MerchantPaymentID,
		ItemID:            item.ID,
		ItemName:          item.Name,
		Quantity:          req.Quantity,
		Amount:            amount,
		Provider:          payment.ProviderName,
	}); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, checkout)
}

// paymentNotify handles the provider's server-to-server notification. It is
// idempotent on the merchant payment id: a replay never appends a second sale.
func (h *Handler) paymentNotify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondError(w, r, apperr.Payment("malformed notification"))
		return
	}
	fields := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}

	if !h.payfast.VerifySignature(fields) {
		h.respondError(w, r, apperr.Payment("invalid notification signature"))
		return
	}
	if err := h.payfast.ValidateNotification(r.Context(), fields); err != nil {
		h.respondError(w, r, err)
		return
	}

	merchantPaymentID := fields["m_payment_id"]
	pending, err := h.payments.GetByMerchantID(r.Context(), merchantPaymentID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			h.logger.Warn("notification for unknown payment", zap.String("m_payment_id", merchantPaymentID))
			respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		h.respondError(w, r, err)
		return
	}

	switch fields["payment_status"] {
	case payment.StatusComplete:
		gross, err := strconv.ParseFloat(fields["amount_gross"], 64)
		if err != nil || math.Abs(gross-pending.Amount) > 0.01 {
			h.respondError(w, r, apperr.Payment("notification amount missing or does not match checkout"))
			return
		}
		claimed, err := h.payments.Transition(r.Context(), merchantPaymentID, domain.PaymentStatusComplete)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		if !claimed {
			respondJSON(w, http.StatusOK, map[string]string{"status": pending.Status})
			return
		}
		rec, err := h.processor.Sell(r.Context(), pos.SaleInput{
			ItemName:       pending.ItemName,
			Quantity:       pending.Quantity,
			PaymentMethod:  payment.ProviderName,
			AmountReceived: &pending.Amount,
		})
		if err != nil {
			_ = h.payments.SetStatus(r.Context(), merchantPaymentID, domain.PaymentStatusFailed)
			h.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"status": "complete", "sale": rec})
	case payment.StatusFailed, payment.StatusCancelled:
		if _, err := h.payments.Transition(r.Context(), merchantPaymentID, domain.PaymentStatusFailed); err != nil {
			h.respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "failed"})
	default:
		respondJSON(w, http.StatusOK, map[string]string{"status": "pending"})
	}
}

// Helpers

func pathID(r *http.Request) (int64, *apperr.Error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid id")
	}
	return id, nil
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	if appErr.Code == apperr.CodeStorage {
		h.logger.Error("storage failure", zap.String("path", r.URL.Path), zap.Error(appErr))
	}
	respondJSON(w, appErr.HTTPStatus, map[string]any{"error": appErr})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}
