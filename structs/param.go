package structs

// ReportQueueParam is the message body of the intake-report queue.
type ReportQueueParam struct {
	Type      string `json:"type" form:"type"`
	OwnerID   string `json:"owner_id" form:"owner_id"`
	Date      string `json:"date" form:"date"`
	TaskID    uint   `json:"task_id" form:"task_id"`
	Result    string `json:"result" form:"result"`
	QueueType string `json:"queue_type" form:"queue_type"`
}

type MismatchQueueResponse struct {
	TaskId uint   `json:"task_id"`
	Queue  string `json:"queue"`
}

type RegisterParam struct {
	Username  string `json:"username" binding:"required,max=100"`
	Password  string `json:"password" binding:"required,max=100"`
	Password2 string `json:"password2" binding:"required,max=100"`
}

type CredentialParam struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshParam struct {
	Refresh string `json:"refresh" binding:"required"`
}
