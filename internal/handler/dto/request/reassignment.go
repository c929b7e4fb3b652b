package request

type ReassignRequest struct {
	TargetUserID int64  `json:"target_user_id" binding:"required"`
	Reason       string `json:"reason" binding:"max=500"`
}

type ReassignAutoRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}
