package model

// UserRole 由认证服务签发在 JWT 中，本服务只读取
type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)
