package slack

// envelope is the common part of every Web API answer.
type envelope struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Metadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

type usersResponse struct {
	envelope
	Members []user `json:"members"`
}

type user struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Deleted  bool   `json:"deleted"`
	IsBot    bool   `json:"is_bot"`
	Profile  struct {
		Email    string `json:"email"`
		RealName string `json:"real_name"`
	} `json:"profile"`
}

type userGroupsResponse struct {
	envelope
	UserGroups []userGroup `json:"usergroups"`
}

type userGroup struct {
	ID     string   `json:"id"`
	Handle string   `json:"handle"`
	Users  []string `json:"users"`
}

type conversationsResponse struct {
	envelope
	Channels []conversation `json:"channels"`
}

type conversation struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
}

type membersResponse struct {
	envelope
	Members []string `json:"members"`
}

type billableResponse struct {
	envelope
	BillableInfo map[string]struct {
		BillingActive bool `json:"billing_active"`
	} `json:"billable_info"`
}

// response is implemented by every answer through the embedded envelope.
type response interface {
	status() *envelope
}

func (e *envelope) status() *envelope { return e }
