// Package model はドメインモデルを定義する。
package model

// User はアップストリームAPIのユーザーを表す。
// 実レコードのほか、ユーザー解決に失敗した場合のプレースホルダーとしても使われる。
type User struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Gender string `json:"gender"`
	Status string `json:"status"`
}

// プレースホルダーユーザーの固定値。
const (
	PlaceholderUserName  = "Unknown User"
	PlaceholderUserEmail = "unknownuser@example.com"
)

// PlaceholderUser はユーザー解決に失敗した投稿へ差し込むプレースホルダーを生成する。
// IDには参照元投稿のuser_idをそのまま使う。
func PlaceholderUser(userID int) *User {
	return &User{
		ID:     userID,
		Name:   PlaceholderUserName,
		Email:  PlaceholderUserEmail,
		Gender: "male",
		Status: "active",
	}
}

// IsPlaceholder はこのユーザーがプレースホルダーかどうかを返す。
func (u *User) IsPlaceholder() bool {
	return u != nil && u.Name == PlaceholderUserName && u.Email == PlaceholderUserEmail
}
