package api

import (
	"net/http"
	"strconv"

	"schedcore/internal/domain/assignment"
	reqdto "schedcore/internal/handler/dto/request"
	resdto "schedcore/internal/handler/dto/response"
	"schedcore/internal/handler/middleware"
	"schedcore/internal/infra"
	"schedcore/internal/pkg/errs"
	"schedcore/internal/usecase/commands"
	"schedcore/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	reassignments     commands.ReassignmentCommands
	assignmentReasons commands.AssignmentReasonCommands
	bookingQueries    queries.BookingQueries
}

func NewBookingHandler(reassignments commands.ReassignmentCommands, assignmentReasons commands.AssignmentReasonCommands, bookingQueries queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		reassignments:     reassignments,
		assignmentReasons: assignmentReasons,
		bookingQueries:    bookingQueries,
	}
}

func (h *BookingHandler) Reassign(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.ReassignRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.reassignments.Reassign(c.Request.Context(), bookingID, req.TargetUserID, userID, req.Reason)
	h.respondReassignment(c, result, err)
}

func (h *BookingHandler) ReassignAuto(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.ReassignAutoRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.reassignments.ReassignToAvailable(c.Request.Context(), bookingID, userID, req.Reason)
	h.respondReassignment(c, result, err)
}

func (h *BookingHandler) respondReassignment(c *gin.Context, result *commands.ReassignmentResult, err error) {
	if err != nil {
		// A calendar push failure after commit still reassigned the booking;
		// the caller gets the result plus a pending flag.
		if errs.Is(err, errs.ErrCalendarSyncFailed) && result != nil {
			c.JSON(http.StatusAccepted, resdto.FromReassignmentResult(result, true))
			return
		}
		switch {
		case errs.Is(err, errs.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		case errs.Is(err, errs.ErrBookingTerminal):
			c.JSON(http.StatusConflict, gin.H{"error": "Booking is cancelled or rejected"})
		case errs.Is(err, errs.ErrBookingNotAssignable):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Event type does not allow reassignment"})
		case errs.Is(err, errs.ErrHostNotInPool):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Target user is not a host of this event type"})
		case errs.Is(err, errs.ErrHostIsFixed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Target host is fixed and cannot receive reassignments"})
		case errs.Is(err, errs.ErrAlreadyAssigned):
			c.JSON(http.StatusConflict, gin.H{"error": "Target host is already assigned to this booking"})
		case errs.Is(err, errs.ErrHostDoubleBooked):
			c.JSON(http.StatusConflict, gin.H{"error": "Target host has a conflicting booking"})
		case errs.Is(err, errs.ErrNoAvailableHost):
			c.JSON(http.StatusConflict, gin.H{"error": "No available host for this time slot"})
		case errs.Is(err, errs.ErrInvalidAssignment):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Booking host state does not allow reassignment"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromReassignmentResult(result, false))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	view, err := h.bookingQueries.GetByID(c.Request.Context(), bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

func (h *BookingHandler) ListAssignmentReasons(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	reasons, err := h.bookingQueries.ListAssignmentReasons(c.Request.Context(), bookingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.AssignmentReasonListResponse{Reasons: reasons})
}

// RecordAssignmentReason attaches the routing or CRM decision that picked
// this booking's organizer to its audit trail.
func (h *BookingHandler) RecordAssignmentReason(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	var req reqdto.RecordAssignmentReasonRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	var (
		result *commands.RecordResult
		err    error
	)
	switch {
	case req.CRMAppSlug != "":
		args := assignment.OwnershipArgs{
			RecordType:      req.CRMRecordType,
			TeamMemberEmail: req.TeamMemberEmail,
		}
		if req.RoutingFormResponseID != nil {
			args.RoutingFormResponseID = *req.RoutingFormResponseID
		}
		result, err = h.assignmentReasons.RecordCRMOwnership(c.Request.Context(), bookingID, req.CRMAppSlug, args)
	case req.RoutingFormResponseID != nil:
		result, err = h.assignmentReasons.RecordRoutingFormRoute(c.Request.Context(), bookingID, *req.RoutingFormResponseID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either routing_form_response_id or crm_app_slug is required"})
		return
	}
	if err != nil {
		if errs.Is(err, errs.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.FromRecordResult(result))
}

func (h *BookingHandler) bookingIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return 0, false
	}
	return id, true
}
