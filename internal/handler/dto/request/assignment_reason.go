package request

// RecordAssignmentReasonRequest is posted by the booking pipeline once
// routing or a CRM lookup has decided the organizer. Exactly one of the two
// sources must be present; crm_app_slug wins when both are.
type RecordAssignmentReasonRequest struct {
	RoutingFormResponseID *int64 `json:"routing_form_response_id"`
	CRMAppSlug            string `json:"crm_app_slug"`
	CRMRecordType         string `json:"crm_record_type"`
	TeamMemberEmail       string `json:"team_member_email"`
}
