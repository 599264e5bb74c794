package model

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type ResponseApi struct {
	ApiMessage string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}
