package api

import (
	"crypto/subtle"
	"net/http"

	"schedcore/internal/domain/payment"
	reqdto "schedcore/internal/handler/dto/request"
	resdto "schedcore/internal/handler/dto/response"
	"schedcore/internal/infra"
	"schedcore/internal/pkg/config"
	"schedcore/internal/pkg/errs"
	"schedcore/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const (
	headerPaymentToken   = "X-Webhook-Token"
	headerGoogChannelID  = "X-Goog-Channel-ID"
	headerGoogToken      = "X-Goog-Channel-Token"
	headerGoogState      = "X-Goog-Resource-State"
	resourceStateInitial = "sync"
)

type WebhookHandler struct {
	settlements  commands.SettlementCommands
	calendarSync commands.CalendarSyncCommands
	cfg          config.WebhookConfig
}

func NewWebhookHandler(settlements commands.SettlementCommands, calendarSync commands.CalendarSyncCommands, cfg config.WebhookConfig) *WebhookHandler {
	return &WebhookHandler{
		settlements:  settlements,
		calendarSync: calendarSync,
		cfg:          cfg,
	}
}

func (h *WebhookHandler) PaymentWebhook(c *gin.Context) {
	if !tokenMatches(c.GetHeader(headerPaymentToken), h.cfg.PaymentToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook token"})
		return
	}

	var req reqdto.PaymentWebhookRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.settlements.SettleByExternalRef(c.Request.Context(), req.ExternalID, req.Payload)
	if err != nil {
		switch {
		case errs.Is(err, errs.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		case errs.Is(err, payment.ErrRefunded):
			c.JSON(http.StatusConflict, gin.H{"error": "Payment was refunded"})
		case errs.Is(err, errs.ErrDataIntegrity):
			c.JSON(http.StatusConflict, gin.H{"error": "Payment references an unknown booking"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromSettlementResult(result))
}

// CalendarWebhook receives Google push notifications. The body is empty by
// contract; everything of interest is in the channel headers.
func (h *WebhookHandler) CalendarWebhook(c *gin.Context) {
	if !tokenMatches(c.GetHeader(headerGoogToken), h.cfg.CalendarChannelToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid channel token"})
		return
	}

	// The initial handshake notification carries no changes.
	if c.GetHeader(headerGoogState) == resourceStateInitial {
		c.Status(http.StatusOK)
		return
	}

	channelID := c.GetHeader(headerGoogChannelID)
	if channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing channel ID"})
		return
	}

	summary, err := h.calendarSync.SyncByChannel(c.Request.Context(), channelID)
	if err != nil {
		switch {
		case errs.Is(err, errs.ErrSelectedCalendarNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown notification channel"})
		case errs.Is(err, errs.ErrCredentialNotFound):
			c.JSON(http.StatusGone, gin.H{"error": "Calendar credential no longer exists"})
		case errs.Is(err, errs.ErrCalendarSyncFailed):
			// Rate limits and provider outages are worth a redelivery; auth
			// failures and the rest are not.
			if infra.IsRetryableProvider(err) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Calendar provider unavailable, retry later"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "Calendar provider unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromSyncSummary(summary))
}

func tokenMatches(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
