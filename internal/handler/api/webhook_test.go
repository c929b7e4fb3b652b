//go:build unit

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"schedcore/internal/domain/payment"
	"schedcore/internal/handler/api"
	"schedcore/internal/infra"
	"schedcore/internal/pkg/config"
	"schedcore/internal/pkg/errs"
	"schedcore/internal/usecase/commands"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type stubSettlements struct {
	result *commands.SettlementResult
	err    error

	lastExternalID string
	lastPayload    map[string]any
}

func (s *stubSettlements) Settle(context.Context, int64, map[string]any) (*commands.SettlementResult, error) {
	return s.result, s.err
}

func (s *stubSettlements) SettleByExternalRef(_ context.Context, externalID string, payload map[string]any) (*commands.SettlementResult, error) {
	s.lastExternalID = externalID
	s.lastPayload = payload
	return s.result, s.err
}

type stubCalendarSync struct {
	summary *commands.SyncSummary
	err     error

	lastChannelID string
}

func (s *stubCalendarSync) SyncByChannel(_ context.Context, channelID string) (*commands.SyncSummary, error) {
	s.lastChannelID = channelID
	return s.summary, s.err
}

type WebhookHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	settlements *stubSettlements
	sync        *stubCalendarSync
}

func (s *WebhookHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.settlements = &stubSettlements{}
	s.sync = &stubCalendarSync{}
	handler := api.NewWebhookHandler(s.settlements, s.sync, config.WebhookConfig{
		CalendarChannelToken: "channel-token",
		PaymentToken:         "payment-token",
	})

	s.router.POST("/webhooks/payment", handler.PaymentWebhook)
	s.router.POST("/webhooks/calendar", handler.CalendarWebhook)
}

func TestWebhookHandlerSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}

func (s *WebhookHandlerTestSuite) performPayment(token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Webhook-Token", token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *WebhookHandlerTestSuite) performCalendar(headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/calendar", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *WebhookHandlerTestSuite) TestPaymentWebhook() {
	s.Run("success: settles and echoes the result", func() {
		s.settlements.result = &commands.SettlementResult{PaymentID: 5, BookingID: 42, Confirmed: true}
		s.settlements.err = nil

		rec := s.performPayment("payment-token", gin.H{
			"external_id": "order_1",
			"payload":     gin.H{"paymentIntent": "pi_1"},
		})
		s.Equal(http.StatusOK, rec.Code)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.EqualValues(42, body["booking_id"])
		s.Equal(true, body["confirmed"])

		s.Equal("order_1", s.settlements.lastExternalID)
		s.Equal("pi_1", s.settlements.lastPayload["paymentIntent"])
	})

	s.Run("success: duplicate delivery still returns 200", func() {
		s.settlements.result = &commands.SettlementResult{PaymentID: 5, BookingID: 42, Replayed: true}
		s.settlements.err = nil

		rec := s.performPayment("payment-token", gin.H{"external_id": "order_1"})
		s.Equal(http.StatusOK, rec.Code)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(true, body["replayed"])
	})

	s.Run("error: 401 for a wrong token", func() {
		rec := s.performPayment("wrong", gin.H{"external_id": "order_1"})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("error: 401 for a missing token", func() {
		rec := s.performPayment("", gin.H{"external_id": "order_1"})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("error: 400 when external_id is missing", func() {
		rec := s.performPayment("payment-token", gin.H{"payload": gin.H{}})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 404 for an unknown payment reference", func() {
		s.settlements.result = nil
		s.settlements.err = errs.ErrPaymentNotFound

		rec := s.performPayment("payment-token", gin.H{"external_id": "order_x"})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("error: 409 for a refunded payment", func() {
		s.settlements.result = nil
		s.settlements.err = payment.ErrRefunded

		rec := s.performPayment("payment-token", gin.H{"external_id": "order_1"})
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *WebhookHandlerTestSuite) TestCalendarWebhook() {
	validHeaders := func() map[string]string {
		return map[string]string{
			"X-Goog-Channel-Token":  "channel-token",
			"X-Goog-Channel-ID":     "chan_1",
			"X-Goog-Resource-State": "exists",
		}
	}

	s.Run("success: runs a sync pass for the channel", func() {
		s.sync.summary = &commands.SyncSummary{Created: 1, Updated: 2}
		s.sync.err = nil

		rec := s.performCalendar(validHeaders())
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("chan_1", s.sync.lastChannelID)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.EqualValues(1, body["created"])
		s.EqualValues(2, body["updated"])
	})

	s.Run("success: handshake notification is acknowledged without syncing", func() {
		s.sync.lastChannelID = ""
		headers := validHeaders()
		headers["X-Goog-Resource-State"] = "sync"

		rec := s.performCalendar(headers)
		s.Equal(http.StatusOK, rec.Code)
		s.Empty(s.sync.lastChannelID)
	})

	s.Run("error: 401 for a wrong channel token", func() {
		headers := validHeaders()
		headers["X-Goog-Channel-Token"] = "wrong"

		rec := s.performCalendar(headers)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("error: 400 without a channel id", func() {
		headers := validHeaders()
		delete(headers, "X-Goog-Channel-ID")

		rec := s.performCalendar(headers)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 404 for an unknown channel", func() {
		s.sync.summary = nil
		s.sync.err = errs.ErrSelectedCalendarNotFound

		rec := s.performCalendar(validHeaders())
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("error: 410 when the credential is gone", func() {
		s.sync.summary = nil
		s.sync.err = errs.ErrCredentialNotFound

		rec := s.performCalendar(validHeaders())
		s.Equal(http.StatusGone, rec.Code)
	})

	s.Run("error: 502 when the provider is unavailable", func() {
		s.sync.summary = nil
		s.sync.err = errs.ErrCalendarSyncFailed

		rec := s.performCalendar(validHeaders())
		s.Equal(http.StatusBadGateway, rec.Code)
	})

	s.Run("error: 503 with Retry-After when the provider rate limits", func() {
		s.sync.summary = nil
		s.sync.err = errs.Mark(
			infra.WrapRepoErr("rate limited", errors.New("429"), infra.KindProviderRateLimited),
			errs.ErrCalendarSyncFailed,
		)

		rec := s.performCalendar(validHeaders())
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.Equal("60", rec.Header().Get("Retry-After"))
	})
}
