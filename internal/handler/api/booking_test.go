//go:build unit

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"schedcore/internal/domain/assignment"
	"schedcore/internal/handler/api"
	"schedcore/internal/infra"
	"schedcore/internal/pkg/errs"
	"schedcore/internal/usecase/commands"
	"schedcore/internal/usecase/queries"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type stubReassignments struct {
	result *commands.ReassignmentResult
	err    error

	lastBookingID int64
	lastTargetID  int64
	lastByID      int64
	lastReason    string
	autoCalls     int
}

func (s *stubReassignments) Reassign(_ context.Context, bookingID, targetUserID, reassignedByID int64, reason string) (*commands.ReassignmentResult, error) {
	s.lastBookingID = bookingID
	s.lastTargetID = targetUserID
	s.lastByID = reassignedByID
	s.lastReason = reason
	return s.result, s.err
}

func (s *stubReassignments) ReassignToAvailable(_ context.Context, bookingID, reassignedByID int64, reason string) (*commands.ReassignmentResult, error) {
	s.autoCalls++
	s.lastBookingID = bookingID
	s.lastByID = reassignedByID
	s.lastReason = reason
	return s.result, s.err
}

type stubAssignmentReasons struct {
	result *commands.RecordResult
	err    error

	lastBookingID  int64
	lastResponseID int64
	lastAppSlug    string
	lastArgs       assignment.OwnershipArgs
}

func (s *stubAssignmentReasons) RecordRoutingFormRoute(_ context.Context, bookingID, responseID int64) (*commands.RecordResult, error) {
	s.lastBookingID = bookingID
	s.lastResponseID = responseID
	return s.result, s.err
}

func (s *stubAssignmentReasons) RecordCRMOwnership(_ context.Context, bookingID int64, appSlug string, args assignment.OwnershipArgs) (*commands.RecordResult, error) {
	s.lastBookingID = bookingID
	s.lastAppSlug = appSlug
	s.lastArgs = args
	return s.result, s.err
}

type stubBookingQueries struct {
	view    *queries.BookingView
	reasons []queries.AssignmentReasonView
	err     error
}

func (s *stubBookingQueries) GetByID(context.Context, int64) (*queries.BookingView, error) {
	return s.view, s.err
}

func (s *stubBookingQueries) ListAssignmentReasons(context.Context, int64) ([]queries.AssignmentReasonView, error) {
	return s.reasons, s.err
}

type BookingHandlerTestSuite struct {
	suite.Suite
	router        *gin.Engine
	reassignments *stubReassignments
	reasons       *stubAssignmentReasons
	bookingViews  *stubBookingQueries
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.reassignments = &stubReassignments{}
	s.reasons = &stubAssignmentReasons{}
	s.bookingViews = &stubBookingQueries{}
	handler := api.NewBookingHandler(s.reassignments, s.reasons, s.bookingViews)

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", int64(99))
		c.Next()
	}

	s.router.GET("/bookings/:id", authMiddleware, handler.GetBooking)
	s.router.GET("/bookings/:id/assignment-reasons", authMiddleware, handler.ListAssignmentReasons)
	s.router.POST("/bookings/:id/assignment-reasons", authMiddleware, handler.RecordAssignmentReason)
	s.router.POST("/bookings/:id/reassign", authMiddleware, handler.Reassign)
	s.router.POST("/bookings/:id/reassign/auto", authMiddleware, handler.ReassignAuto)
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func (s *BookingHandlerTestSuite) perform(method, url string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *BookingHandlerTestSuite) TestReassign() {
	url := "/bookings/10/reassign"

	s.Run("success: returns 200 with the reassignment result", func() {
		s.reassignments.result = &commands.ReassignmentResult{
			BookingID: 10, PreviousUserID: 1, NewUserID: 2,
			ReasonText: "Reassigned by: admin",
		}
		s.reassignments.err = nil

		rec := s.perform(http.MethodPost, url, gin.H{"target_user_id": 2, "reason": "host unavailable"})
		s.Equal(http.StatusOK, rec.Code)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.EqualValues(10, body["booking_id"])
		s.EqualValues(2, body["new_user_id"])
		s.NotContains(body, "sync_pending")

		s.Equal(int64(10), s.reassignments.lastBookingID)
		s.Equal(int64(2), s.reassignments.lastTargetID)
		s.Equal(int64(99), s.reassignments.lastByID)
		s.Equal("host unavailable", s.reassignments.lastReason)
	})

	s.Run("success with pending sync: returns 202", func() {
		s.reassignments.result = &commands.ReassignmentResult{BookingID: 10, NewUserID: 2}
		s.reassignments.err = errs.Mark(errors.New("provider down"), errs.ErrCalendarSyncFailed)

		rec := s.perform(http.MethodPost, url, gin.H{"target_user_id": 2})
		s.Equal(http.StatusAccepted, rec.Code)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(true, body["sync_pending"])
	})

	s.Run("error: 404 for unknown booking", func() {
		s.reassignments.result = nil
		s.reassignments.err = errs.ErrBookingNotFound

		rec := s.perform(http.MethodPost, url, gin.H{"target_user_id": 2})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("error: 409 for conflicting target host", func() {
		s.reassignments.result = nil
		s.reassignments.err = errs.ErrHostDoubleBooked

		rec := s.perform(http.MethodPost, url, gin.H{"target_user_id": 2})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("error: 422 for target outside the host pool", func() {
		s.reassignments.result = nil
		s.reassignments.err = errs.ErrHostNotInPool

		rec := s.perform(http.MethodPost, url, gin.H{"target_user_id": 2})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("error: 400 when target_user_id is missing", func() {
		rec := s.perform(http.MethodPost, url, gin.H{"reason": "x"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 400 for malformed booking id", func() {
		rec := s.perform(http.MethodPost, "/bookings/not-a-number/reassign", gin.H{"target_user_id": 2})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 401 without authentication", func() {
		req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"target_user_id":2}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *BookingHandlerTestSuite) TestReassignAuto() {
	url := "/bookings/10/reassign/auto"

	s.Run("success: picks a host automatically", func() {
		s.reassignments.result = &commands.ReassignmentResult{BookingID: 10, NewUserID: 3}
		s.reassignments.err = nil

		rec := s.perform(http.MethodPost, url, gin.H{"reason": "rotation"})
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(1, s.reassignments.autoCalls)
		s.Equal("rotation", s.reassignments.lastReason)
	})

	s.Run("error: 409 when no host is free", func() {
		s.reassignments.result = nil
		s.reassignments.err = errs.ErrNoAvailableHost

		rec := s.perform(http.MethodPost, url, gin.H{})
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *BookingHandlerTestSuite) TestGetBooking() {
	s.Run("success: returns the booking view", func() {
		s.bookingViews.view = &queries.BookingView{ID: 10, UID: "bk_10", Status: "ACCEPTED"}
		s.bookingViews.err = nil

		rec := s.perform(http.MethodGet, "/bookings/10", nil)
		s.Equal(http.StatusOK, rec.Code)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("bk_10", body["uid"])
	})

	s.Run("error: 404 for unknown booking", func() {
		s.bookingViews.view = nil
		s.bookingViews.err = infra.WrapRepoErr("booking not found", errors.New("no rows"), infra.KindNotFound)

		rec := s.perform(http.MethodGet, "/bookings/10", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *BookingHandlerTestSuite) TestListAssignmentReasons() {
	s.Run("success: returns the audit trail", func() {
		s.bookingViews.reasons = []queries.AssignmentReasonView{
			{ID: 1, Enum: "REASSIGNED", Text: "Reassigned by: admin"},
		}
		s.bookingViews.err = nil

		rec := s.perform(http.MethodGet, "/bookings/10/assignment-reasons", nil)
		s.Equal(http.StatusOK, rec.Code)

		var body struct {
			Reasons []map[string]any `json:"reasons"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Require().Len(body.Reasons, 1)
		s.Equal("REASSIGNED", body.Reasons[0]["reason_enum"])
	})
}

func (s *BookingHandlerTestSuite) TestRecordAssignmentReason() {
	url := "/bookings/10/assignment-reasons"

	s.Run("success: records the routing form decision", func() {
		s.reasons.result = &commands.RecordResult{Recorded: true, Text: "Region: EMEA"}
		s.reasons.err = nil

		rec := s.perform(http.MethodPost, url, gin.H{"routing_form_response_id": 20})
		s.Equal(http.StatusOK, rec.Code)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(true, body["recorded"])
		s.Equal("Region: EMEA", body["text"])
		s.Equal(int64(10), s.reasons.lastBookingID)
		s.Equal(int64(20), s.reasons.lastResponseID)
	})

	s.Run("success: records CRM ownership", func() {
		s.reasons.result = &commands.RecordResult{Recorded: true, Text: "Contact owned by: sam"}
		s.reasons.err = nil

		rec := s.perform(http.MethodPost, url, gin.H{
			"crm_app_slug":      "salesforce",
			"crm_record_type":   "Contact",
			"team_member_email": "sam@acme.test",
		})
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("salesforce", s.reasons.lastAppSlug)
		s.Equal("sam@acme.test", s.reasons.lastArgs.TeamMemberEmail)
	})

	s.Run("success: no-op result is still 200", func() {
		s.reasons.result = &commands.RecordResult{}
		s.reasons.err = nil

		rec := s.perform(http.MethodPost, url, gin.H{"routing_form_response_id": 20})
		s.Equal(http.StatusOK, rec.Code)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(false, body["recorded"])
	})

	s.Run("error: 400 when no source is given", func() {
		rec := s.perform(http.MethodPost, url, gin.H{})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 404 for unknown booking", func() {
		s.reasons.result = nil
		s.reasons.err = errs.ErrBookingNotFound

		rec := s.perform(http.MethodPost, url, gin.H{"routing_form_response_id": 20})
		s.Equal(http.StatusNotFound, rec.Code)
	})
}
