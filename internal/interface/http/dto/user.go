package dto

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50" example:"alice"`
	Email     string `json:"email" binding:"required,email,max=254" example:"alice@example.com"`
	Password  string `json:"password" binding:"required,min=8,max=20" example:"secret123"`
	Password2 string `json:"password2" binding:"required" example:"secret123"`
}

// LoginRequest 登录请求，login可以是用户名或邮箱
type LoginRequest struct {
	Login    string `json:"login" binding:"required,max=254" example:"alice"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// RefreshRequest 刷新Access Token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest 修改联系方式
type UpdateProfileRequest struct {
	Address string `json:"address" binding:"max=255" example:"北京市海淀区"`
	Phone   string `json:"phone" binding:"max=32" example:"13800000000"`
}
