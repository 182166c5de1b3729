// Package model はドメインモデルを定義する。
package model

// Comment はアップストリームAPIのコメントを表す。
// コメント投稿者の身元はname/emailのインライン値であり、Userへの外部キーではない。
type Comment struct {
	ID     int    `json:"id"`
	PostID int    `json:"post_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Body   string `json:"body"`
}

// CommentWithUser はコメントと合成ユーザーを結合したUI表示用モデル。
// Userは常にコメント自身のname/emailから合成されたレコード（ID固定で0）。
type CommentWithUser struct {
	Comment
	User User `json:"user"`
}

// SyntheticCommentUser はコメントのインラインname/emailから合成ユーザーを生成する。
// name/emailが空の場合は匿名の既定値で補う。gender/statusは埋め草の固定値。
func SyntheticCommentUser(c Comment) User {
	name := c.Name
	if name == "" {
		name = "Anonymous"
	}
	email := c.Email
	if email == "" {
		email = "anonymous@example.com"
	}
	return User{
		ID:     0,
		Name:   name,
		Email:  email,
		Gender: "male",
		Status: "active",
	}
}
