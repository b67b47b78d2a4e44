package domain

type UserSummary struct {
	UUID      UserID `json:"uuid"`
	Username  string `json:"username"`
	IsChatbot bool   `json:"is_chatbot"`
	IsOnline  bool   `json:"is_online"`
	IsInCall  bool   `json:"is_in_call"`
}
