package models

import "time"

// RoleAdmin 目前是唯一的角色。
const RoleAdmin = "admin"

// User represents a stored user record inside the users document.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserFile 是整个用户存储文档，持久化为单个 JSON 文件。
// 文档内用户名唯一。
type UserFile struct {
	Users []User `json:"users"`
}

// Find 按用户名精确匹配，找不到返回 nil。
func (f *UserFile) Find(username string) *User {
	for i := range f.Users {
		if f.Users[i].Username == username {
			return &f.Users[i]
		}
	}
	return nil
}

// Identity 是会话鉴权通过后挂到请求上下文里的身份信息。
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
