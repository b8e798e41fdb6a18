package http

import (
	"errors"
	"io"
	"net/http"

	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/ledger"
	"blogsphere/pkg/logger"
	"blogsphere/pkg/middleware"
	"blogsphere/services/billing/internal/repo/cache"
	"blogsphere/services/billing/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// maxWebhookBody bounds a webhook payload; processor events are a few KB.
const maxWebhookBody = 64 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventPublisher hands verified charge events to the background worker.
type EventPublisher interface {
	PublishChargeEvent(ev ledger.ChargeEvent) error
}

type BillingHandler struct {
	billingUseCase  usecase.BillingUseCase
	entitlementFeed cache.EntitlementFeed
	publisher       EventPublisher
	webhookSecret   string
	upgradeURL      string
	logger          *logger.Logger
}

// NewBillingHandler accepts a nil publisher, in which case webhook events are
// applied within the request.
func NewBillingHandler(
	billingUseCase usecase.BillingUseCase,
	entitlementFeed cache.EntitlementFeed,
	publisher EventPublisher,
	webhookSecret string,
	upgradeURL string,
	logger *logger.Logger,
) *BillingHandler {
	return &BillingHandler{
		billingUseCase:  billingUseCase,
		entitlementFeed: entitlementFeed,
		publisher:       publisher,
		webhookSecret:   webhookSecret,
		upgradeURL:      upgradeURL,
		logger:          logger,
	}
}

func (h *BillingHandler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	body := gin.H{"error": apperrors.Message(err)}
	if errors.Is(err, apperrors.ErrForbidden) {
		body["upgrade_url"] = h.upgradeURL
	}
	c.JSON(status, body)
}

// GetUpgrade godoc
// @Summary      Upgrade offer
// @Description  Current tier, checkout link and price for the premium upgrade
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entity.UpgradeInfo
// @Failure      401  {object}  map[string]string
// @Router       /billing/upgrade [get]
func (h *BillingHandler) GetUpgrade(c *gin.Context) {
	info, err := h.billingUseCase.GetUpgradeInfo(c.Request.Context(), middleware.RequesterID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Reconcile godoc
// @Summary      Refresh entitlement
// @Description  Re-reads the payment ledger and promotes the account when a charge succeeded
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entity.ReconcileResult
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /billing/reconcile [post]
func (h *BillingHandler) Reconcile(c *gin.Context) {
	result, err := h.billingUseCase.Reconcile(c.Request.Context(), middleware.RequesterID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPayments godoc
// @Summary      Payment history
// @Description  Charges for the account, newest first. Premium accounts only.
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string "free tier, includes upgrade_url"
// @Failure      503  {object}  map[string]string
// @Router       /billing/payments [get]
func (h *BillingHandler) GetPayments(c *gin.Context) {
	rows, err := h.billingUseCase.GetPaymentHistory(c.Request.Context(), middleware.RequesterID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": rows, "count": len(rows)})
}

// Webhook godoc
// @Summary      Payment processor webhook
// @Description  Receives signed charge.* events
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header  string  true  "Webhook signature"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      413  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /billing/webhook [post]
func (h *BillingHandler) Webhook(c *gin.Context) {
	// one byte past the limit tells an oversized payload from one that fits exactly
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	if len(payload) > maxWebhookBody {
		h.logger.Warn("Rejected webhook: payload exceeds %d bytes", maxWebhookBody)
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
		return
	}

	ev, err := ledger.ParseWebhook(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warn("Rejected webhook: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}
	if ev == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishChargeEvent(*ev); err == nil {
			c.JSON(http.StatusOK, gin.H{"received": true, "queued": true})
			return
		}
		h.logger.Warn("Queue unavailable, applying charge event %s inline", ev.EventID)
	}

	if err := h.billingUseCase.HandleChargeEvent(c.Request.Context(), *ev); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "queued": false})
}

// Events godoc
// @Summary      Entitlement updates
// @Description  Websocket that pushes a message when the account becomes premium. Browsers may pass the token as ?token=.
// @Tags         billing
// @Security     BearerAuth
// @Param        token  query  string  false  "JWT when the Authorization header cannot be set"
// @Success      101
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /billing/events [get]
func (h *BillingHandler) Events(c *gin.Context) {
	userID := middleware.RequesterID(c)

	events, stop, err := h.entitlementFeed.Subscribe(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer stop()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket connected for user %s", userID)

	// the read loop only notices the client going away; control frames are
	// answered by the connection itself
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			h.logger.Info("WebSocket disconnected for user %s", userID)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Warn("Failed to write WebSocket message: %v", err)
				return
			}
		}
	}
}
