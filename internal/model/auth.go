package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Agent *Agent `json:"agent"`
}

type RegisterAgentRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	MaxConcurrentChats int    `json:"max_concurrent_chats"`
}
