package models

// LoginRequest はクライアントからのログインリクエストを表します。
// 名前と役割だけで、認証は行いません。
type LoginRequest struct {
	Name string `json:"name" binding:"required"`
	Role Role   `json:"role" binding:"required"`
}
