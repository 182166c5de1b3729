package bookmark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/postfeed/internal/model"
)

func newTestLogger() *slog.Logger {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil))
}

// fakeBookmarkRepo はBookmarkRepositoryのインメモリ実装。
type fakeBookmarkRepo struct {
	bookmarks map[string][]byte // key: deviceID + "/" + postID
	order     []string
	err       error
}

func newFakeBookmarkRepo() *fakeBookmarkRepo {
	return &fakeBookmarkRepo{bookmarks: make(map[string][]byte)}
}

func key(deviceID string, postID int) string {
	return deviceID + "/" + strconv.Itoa(postID)
}

func (f *fakeBookmarkRepo) Upsert(ctx context.Context, deviceID string, postID int, snapshot []byte) error {
	if f.err != nil {
		return f.err
	}
	k := key(deviceID, postID)
	if _, exists := f.bookmarks[k]; !exists {
		f.order = append(f.order, k)
	}
	f.bookmarks[k] = snapshot
	return nil
}

func (f *fakeBookmarkRepo) Delete(ctx context.Context, deviceID string, postID int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	k := key(deviceID, postID)
	if _, exists := f.bookmarks[k]; !exists {
		return false, nil
	}
	delete(f.bookmarks, k)
	return true, nil
}

func (f *fakeBookmarkRepo) ListByDevice(ctx context.Context, deviceID string) ([]*model.Bookmark, error) {
	if f.err != nil {
		return nil, f.err
	}
	// 新しい順 = 挿入の逆順
	var result []*model.Bookmark
	for i := len(f.order) - 1; i >= 0; i-- {
		snapshot, exists := f.bookmarks[f.order[i]]
		if !exists {
			continue
		}
		var post model.PostWithUser
		if err := json.Unmarshal(snapshot, &post); err != nil {
			continue
		}
		result = append(result, &model.Bookmark{
			DeviceID:  deviceID,
			PostID:    post.ID,
			Snapshot:  post,
			CreatedAt: time.Now(),
		})
	}
	return result, nil
}

func (f *fakeBookmarkRepo) Exists(ctx context.Context, deviceID string, postID int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, exists := f.bookmarks[key(deviceID, postID)]
	return exists, nil
}

func testPost(postID int) model.PostWithUser {
	return model.PostWithUser{
		Post: model.Post{ID: postID, UserID: 5, Title: "t", Body: "b"},
		User: &model.User{ID: 5, Name: "Hanako"},
	}
}

func TestService_Save(t *testing.T) {
	repo := newFakeBookmarkRepo()
	s := NewService(repo, newTestLogger())

	if err := s.Save(context.Background(), "device-1", testPost(1)); err != nil {
		t.Fatalf("Save がエラーを返した: %v", err)
	}

	saved, err := s.IsSaved(context.Background(), "device-1", 1)
	if err != nil {
		t.Fatalf("IsSaved がエラーを返した: %v", err)
	}
	if !saved {
		t.Error("保存したブックマークが存在しない")
	}
}

func TestService_Save_InvalidPostID(t *testing.T) {
	s := NewService(newFakeBookmarkRepo(), newTestLogger())

	if err := s.Save(context.Background(), "device-1", model.PostWithUser{}); err == nil {
		t.Error("投稿ID 0 の保存がエラーにならなかった")
	}
}

func TestService_Save_IsIdempotent(t *testing.T) {
	// 同じ投稿の再保存はスナップショットを更新するだけでエラーにしない
	repo := newFakeBookmarkRepo()
	s := NewService(repo, newTestLogger())

	post := testPost(1)
	if err := s.Save(context.Background(), "device-1", post); err != nil {
		t.Fatalf("1回目のSave がエラーを返した: %v", err)
	}

	post.Title = "updated"
	if err := s.Save(context.Background(), "device-1", post); err != nil {
		t.Fatalf("2回目のSave がエラーを返した: %v", err)
	}

	posts, err := s.List(context.Background(), "device-1")
	if err != nil {
		t.Fatalf("List がエラーを返した: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("ブックマーク数 = %d, want 1（重複しない）", len(posts))
	}
	if posts[0].Title != "updated" {
		t.Errorf("Title = %s, want updated（スナップショット更新）", posts[0].Title)
	}
}

func TestService_Remove(t *testing.T) {
	repo := newFakeBookmarkRepo()
	s := NewService(repo, newTestLogger())

	if err := s.Save(context.Background(), "device-1", testPost(1)); err != nil {
		t.Fatalf("Save がエラーを返した: %v", err)
	}

	removed, err := s.Remove(context.Background(), "device-1", 1)
	if err != nil {
		t.Fatalf("Remove がエラーを返した: %v", err)
	}
	if !removed {
		t.Error("removed = false, want true")
	}
}

func TestService_Remove_MissingIsNotError(t *testing.T) {
	s := NewService(newFakeBookmarkRepo(), newTestLogger())

	removed, err := s.Remove(context.Background(), "device-1", 999)
	if err != nil {
		t.Fatalf("存在しないブックマークの削除がエラーになった: %v", err)
	}
	if removed {
		t.Error("removed = true, want false")
	}
}

func TestService_List_NewestFirst(t *testing.T) {
	repo := newFakeBookmarkRepo()
	s := NewService(repo, newTestLogger())

	for _, id := range []int{1, 2, 3} {
		if err := s.Save(context.Background(), "device-1", testPost(id)); err != nil {
			t.Fatalf("Save がエラーを返した: %v", err)
		}
	}

	posts, err := s.List(context.Background(), "device-1")
	if err != nil {
		t.Fatalf("List がエラーを返した: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("ブックマーク数 = %d, want 3", len(posts))
	}
	if posts[0].ID != 3 || posts[2].ID != 1 {
		t.Errorf("並び順 = [%d, %d, %d], want [3, 2, 1]（新しい順）", posts[0].ID, posts[1].ID, posts[2].ID)
	}
}

func TestService_List_RepoErrorPropagates(t *testing.T) {
	repo := newFakeBookmarkRepo()
	repo.err = errors.New("db down")
	s := NewService(repo, newTestLogger())

	if _, err := s.List(context.Background(), "device-1"); err == nil {
		t.Error("リポジトリのエラーが伝播していない")
	}
}
