package structs

type ActivityLogJsonModel struct {
	Type      string         `json:"type"`
	OwnerID   string         `json:"owner_id,omitempty"`
	Date      string         `json:"date"`
	Result    bool           `json:"result"`
	Statistic StatisticModel `json:"statistic"`
	Message   string         `json:"message"`
	Messages  []ErrorModel   `json:"messages"`
}

type StatisticModel struct {
	TotalOwner int `json:"total_owner"`
	FailOwner  int `json:"fail_owner"`
	OKOwner    int `json:"ok_owner"`
}

type ErrorModel struct {
	OwnerID      string `json:"owner_id"`
	ErrorMessage string `json:"error_message"`
}
