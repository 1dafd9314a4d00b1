package handler

type loginRequest struct {
	UserName string `json:"userName" validate:"required,email,max=30"`
	Password string `json:"password" validate:"required,min=4,max=20"`
}

type registerRequest struct {
	UserName string  `json:"userName" validate:"required,email,max=30"`
	Password string  `json:"password" validate:"required,min=4,max=20"`
	Age      *int    `json:"age" validate:"required,gte=0,lte=150"`
	Phone    *string `json:"phone" validate:"required,max=30"`
}

type forgotPasswordRequest struct {
	UserName string `json:"userName" validate:"required,email,max=30"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}
