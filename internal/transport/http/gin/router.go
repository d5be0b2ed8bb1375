package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evensta/evensta-go/internal/domain"
	redisrepo "github.com/evensta/evensta-go/internal/repository/redis"
	"github.com/evensta/evensta-go/internal/service"
	"github.com/evensta/evensta-go/internal/service/admin"
	"github.com/evensta/evensta-go/internal/service/catalog"
	"github.com/evensta/evensta-go/internal/service/checkout"
	"github.com/evensta/evensta-go/internal/service/promoter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))

	r.POST("/checkout/sessions", handleOpenSession(svcs))
	r.DELETE("/checkout/sessions/:token", handleCloseSession(svcs))
	r.POST("/checkout/quote", handleQuote(svcs))
	r.POST("/checkout/purchase", handlePurchase(svcs, idem))

	r.GET("/orders/:id", handleGetOrder(svcs))

	r.GET("/promoters/:id/stats", handlePromoterStats(svcs))
	r.POST("/promoters/:id/promotions/:event_id/stop", handleStopPromotion(svcs))
	r.GET("/promoters/:id/payouts", handleListPayouts(svcs))
	r.GET("/promoters/:id/payouts/quote", handlePayoutQuote(svcs))
	r.POST("/promoters/:id/payouts", handleRequestPayout(svcs))

	// Admin-API
	// TODO: add admin middleware
	adm := r.Group("/admin")
	{
		adm.POST("/events", handleCreateEvent(svcs))
		adm.GET("/settings/fees", handleGetFees(svcs))
		adm.PUT("/settings/fees", handleUpdateFees(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List events
// @Param    limit  query  int  false  "page size"
// @Param    offset query  int  false  "offset"
// @Success  200  {array}  domain.Event
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		events, err := svcs.Catalog.ListEvents(c.Request.Context(), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, events, "public, max-age=30", true)
	}
}

// @Summary  Get event with its ticket/add-on catalog
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  domain.Event
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		e, err := svcs.Catalog.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, e, "public, max-age=60", true)
	}
}

// @Summary  Open a checkout session
// @Param    req body  OpenSessionRequest true "payload"
// @Success  201 {object} OpenSessionResponse
// @Failure  404 {object} ErrorResponse
// @Router   /checkout/sessions [post]
func handleOpenSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OpenSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		sess, err := svcs.Checkout.OpenSession(c.Request.Context(), req.BuyerID, req.EventID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, OpenSessionResponse{
			SessionToken: sess.Token.String(),
			PercentFee:   sess.Fees.PercentFee,
			FixedFee:     sess.Fees.FixedFee,
		})
	}
}

// @Summary  Close a checkout session
// @Param    token  path  string  true  "Session token (uuid)"
// @Success  204
// @Router   /checkout/sessions/{token} [delete]
func handleCloseSession(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := uuid.Parse(c.Param("token"))
		if err != nil {
			badRequest(c, "invalid token")
			return
		}
		svcs.Checkout.CloseSession(token)
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Price a cart
// @Param    req body  QuoteRequest true "payload"
// @Success  200 {object} QuoteResponse
// @Failure  404 {object} ErrorResponse
// @Router   /checkout/quote [post]
func handleQuote(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		in := checkout.QuoteInput{
			EventID:   req.EventID,
			Cart:      toCart(req.Cart),
			PromoCode: req.PromoCode,
			Donation:  req.Donation,
		}
		if req.SessionToken != "" {
			token, err := uuid.Parse(req.SessionToken)
			if err != nil {
				badRequest(c, "invalid session_token")
				return
			}
			in.SessionToken = token
		}

		result, err := svcs.Checkout.Quote(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toQuoteResponse(result))
	}
}

// @Summary  Commit a purchase (idempotent)
// @Param    req body  PurchaseRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} PurchaseResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /checkout/purchase [post]
func handlePurchase(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPurchase(req.EventID, idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		in := checkout.SubmitInput{
			BuyerID:     req.BuyerID,
			EventID:     req.EventID,
			RecipientID: req.RecipientID,
			PromoCode:   req.PromoCode,
			Cart:        toCart(req.Cart),
			Donation:    req.Donation,
			RateKey:     "ip:" + c.ClientIP(),
		}
		if req.SessionToken != "" {
			if token, err := uuid.Parse(req.SessionToken); err == nil {
				in.SessionToken = token
			}
		}

		orderID, err := svcs.Checkout.Submit(c.Request.Context(), in)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, checkout.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(
					http.StatusTooManyRequests,
					ErrorResponse{Error: err.Error()},
				)
				return
			}
			respondErr(c, err)
			return
		}

		resp := PurchaseResponse{OrderID: orderID.String()}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get a committed order
// @Param    id  path  string  true  "Order ID (uuid)"
// @Success  200 {object} OrderResponse
// @Failure  404 {object} ErrorResponse
// @Router   /orders/{id} [get]
func handleGetOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid id")
			return
		}
		order, err := svcs.Checkout.GetOrder(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// @Summary  Promoter earnings summary
// @Param    id  path  int  true  "Promoter ID"
// @Success  200 {object} PromoterStatsResponse
// @Router   /promoters/{id}/stats [get]
func handlePromoterStats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		promoterID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		balance, err := svcs.Promoter.Stats(c.Request.Context(), promoterID)
		if err != nil {
			respondErr(c, err)
			return
		}

		resp := PromoterStatsResponse{
			CurrentBalance: balance.Current,
			TotalEarned:    balance.TotalEarned,
		}
		for _, s := range balance.Active {
			resp.Active = append(resp.Active, PromoStatResponse{
				EventID:           s.EventID,
				CommissionPercent: s.CommissionPercent,
				EarnedAmount:      s.EarnedAmount,
			})
		}
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary  Stop a promotion
// @Param    id        path  int  true  "Promoter ID"
// @Param    event_id  path  int  true  "Event ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /promoters/{id}/promotions/{event_id}/stop [post]
func handleStopPromotion(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		promoterID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		eventID, ok := parseInt64Param(c, "event_id")
		if !ok {
			return
		}
		if err := svcs.Promoter.StopPromotion(c.Request.Context(), promoterID, eventID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List payout requests
// @Param    id  path  int  true  "Promoter ID"
// @Success  200 {array} PayoutRequestResponse
// @Router   /promoters/{id}/payouts [get]
func handleListPayouts(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		promoterID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		requests, err := svcs.Promoter.ListPayouts(c.Request.Context(), promoterID)
		if err != nil {
			respondErr(c, err)
			return
		}

		resp := make([]PayoutRequestResponse, 0, len(requests))
		for _, p := range requests {
			resp = append(resp, toPayoutResponse(p))
		}
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary  Quote an early payout
// @Param    id  path  int  true  "Promoter ID"
// @Success  200 {object} PayoutQuoteResponse
// @Router   /promoters/{id}/payouts/quote [get]
func handlePayoutQuote(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		promoterID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		q, err := svcs.Promoter.QuotePayout(c.Request.Context(), promoterID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, PayoutQuoteResponse{
			GrossAmount: q.GrossAmount,
			FeeAmount:   q.FeeAmount,
			NetAmount:   q.NetAmount,
			HasPending:  q.HasPending,
		})
	}
}

// @Summary  Request an early payout
// @Param    id  path  int  true  "Promoter ID"
// @Success  201 {object} PayoutRequestResponse
// @Failure  409 {object} ErrorResponse "nothing to pay out / already pending"
// @Router   /promoters/{id}/payouts [post]
func handleRequestPayout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		promoterID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		req, err := svcs.Promoter.RequestPayout(c.Request.Context(), promoterID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toPayoutResponse(*req))
	}
}

// @Summary  Create event with its catalog
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} CreateEventResponse
// @Router   /admin/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		ends, err := parseRFC3339(req.EndsAt)
		if err != nil {
			badRequest(c, "invalid ends_at (RFC3339)")
			return
		}

		event := &domain.Event{
			HostID: req.HostID,
			Title:  req.Title,
			Type:   domain.EventType(req.Type),
			Starts: starts,
			Ends:   ends,
		}
		id, err := svcs.Admin.CreateEventWithCatalog(
			c.Request.Context(),
			event,
			toCatalogItems(req.Tickets),
			toCatalogItems(req.AddOns),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateEventResponse{EventID: id})
	}
}

// @Summary  Get platform fee settings
// @Success  200 {object} FeeConfigResponse
// @Router   /admin/settings/fees [get]
func handleGetFees(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		fees, err := svcs.Admin.GetFeeConfig(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, FeeConfigResponse{
			PercentFee: fees.PercentFee,
			FixedFee:   fees.FixedFee,
		})
	}
}

// @Summary  Update platform fee settings
// @Param    req body  UpdateFeesRequest true "payload"
// @Success  204
// @Failure  400 {object} ErrorResponse
// @Router   /admin/settings/fees [put]
func handleUpdateFees(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateFeesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		err := svcs.Admin.UpdateFeeConfig(c.Request.Context(), domain.FeeConfig{
			PercentFee: req.PercentFee,
			FixedFee:   req.FixedFee,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func toPayoutResponse(p domain.PayoutRequest) PayoutRequestResponse {
	return PayoutRequestResponse{
		ID:          p.ID.String(),
		GrossAmount: p.GrossAmount,
		NetAmount:   p.NetAmount,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// checkout service
	case errors.Is(err, checkout.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, checkout.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "order not found"})
		return
	case errors.Is(err, checkout.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "checkout session not found"})
		return
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cart is empty"})
		return
	case errors.Is(err, checkout.ErrUnknownItems):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cart references no known catalog items"})
		return
	// catalog service
	case errors.Is(err, catalog.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	// promoter service
	case errors.Is(err, promoter.ErrPromotionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "promotion not found"})
		return
	case errors.Is(err, promoter.ErrPayoutPending):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "a payout request is already pending"})
		return
	case errors.Is(err, promoter.ErrNothingToPayOut):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no payable balance"})
		return
	// admin service
	case errors.Is(err, admin.ErrEventConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "event conflict"})
		return
	case errors.Is(err, admin.ErrCatalogConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "catalog item conflict"})
		return
	case errors.Is(err, admin.ErrInvalidFees):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid fee configuration"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "an unexpected error occurred"})
}
