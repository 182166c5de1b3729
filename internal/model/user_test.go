package model

import "testing"

func TestPlaceholderUser(t *testing.T) {
	u := PlaceholderUser(42)

	if u.ID != 42 {
		t.Errorf("ID = %d, want 42（参照元投稿のuser_id）", u.ID)
	}
	if u.Name != PlaceholderUserName {
		t.Errorf("Name = %s, want %s", u.Name, PlaceholderUserName)
	}
	if u.Email != PlaceholderUserEmail {
		t.Errorf("Email = %s, want %s", u.Email, PlaceholderUserEmail)
	}
	if u.Status != "active" {
		t.Errorf("Status = %s, want active", u.Status)
	}
}

func TestUser_IsPlaceholder(t *testing.T) {
	if !PlaceholderUser(1).IsPlaceholder() {
		t.Error("プレースホルダーがIsPlaceholder=falseと判定された")
	}

	real := &User{ID: 1, Name: "Hanako", Email: "hanako@example.com"}
	if real.IsPlaceholder() {
		t.Error("実在ユーザーがIsPlaceholder=trueと判定された")
	}

	var nilUser *User
	if nilUser.IsPlaceholder() {
		t.Error("nilユーザーがIsPlaceholder=trueと判定された")
	}
}
