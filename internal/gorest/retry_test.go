package gorest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	}

	got, err := Do(context.Background(), op, 2, time.Millisecond)
	if err != nil {
		t.Fatalf("Do がエラーを返した: %v", err)
	}
	if got != 42 {
		t.Errorf("結果 = %d, want 42", got)
	}
	if calls != 1 {
		t.Errorf("呼び出し回数 = %d, want 1", calls)
	}
}

func TestDo_NotFoundReturnsImmediately(t *testing.T) {
	// 404は終端エラーでありリトライしない
	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		return "", &APIError{Kind: KindNotFound, StatusCode: 404, Endpoint: "/posts/1"}
	}

	_, err := Do(context.Background(), op, 2, time.Millisecond)
	if !IsNotFound(err) {
		t.Fatalf("404のAPIErrorが伝播していない: %v", err)
	}
	if calls != 1 {
		t.Errorf("呼び出し回数 = %d, want 1（404はリトライ対象外）", calls)
	}
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	// 2回失敗して3回目に成功するケース: maxRetries=2なら成功する
	calls := 0
	op := func(ctx context.Context) ([]string, error) {
		calls++
		if calls < 3 {
			return nil, &APIError{Kind: KindTransient, StatusCode: 500, Endpoint: "/posts"}
		}
		return []string{"ok"}, nil
	}

	got, err := Do(context.Background(), op, 2, time.Millisecond)
	if err != nil {
		t.Fatalf("Do がエラーを返した: %v", err)
	}
	if len(got) != 1 || got[0] != "ok" {
		t.Errorf("結果 = %v, want [ok]", got)
	}
	if calls != 3 {
		t.Errorf("呼び出し回数 = %d, want 3", calls)
	}
}

func TestDo_ExhaustionPropagatesLastError(t *testing.T) {
	// 全試行が失敗した場合、最後のエラーをそのまま返す（黙って飲み込まない）
	calls := 0
	lastErr := &APIError{Kind: KindTransient, StatusCode: 503, Endpoint: "/posts"}
	op := func(ctx context.Context) (int, error) {
		calls++
		return 0, lastErr
	}

	_, err := Do(context.Background(), op, 2, time.Millisecond)
	if err == nil {
		t.Fatal("リトライ上限到達後にエラーが伝播していない")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 503 {
		t.Errorf("伝播したエラー = %v, want 503のAPIError", err)
	}
	// 初回 + リトライ2回 = 3回
	if calls != 3 {
		t.Errorf("呼び出し回数 = %d, want 3", calls)
	}
}

func TestDo_DelayDoublesBetweenAttempts(t *testing.T) {
	var intervals []time.Time
	op := func(ctx context.Context) (int, error) {
		intervals = append(intervals, time.Now())
		return 0, &APIError{Kind: KindTransient, StatusCode: 500}
	}

	initialDelay := 20 * time.Millisecond
	_, _ = Do(context.Background(), op, 2, initialDelay)

	if len(intervals) != 3 {
		t.Fatalf("呼び出し回数 = %d, want 3", len(intervals))
	}

	first := intervals[1].Sub(intervals[0])
	second := intervals[2].Sub(intervals[1])

	if first < initialDelay {
		t.Errorf("1回目の待機 = %v, want %v以上", first, initialDelay)
	}
	if second < 2*initialDelay {
		t.Errorf("2回目の待機 = %v, want %v以上（指数バックオフ）", second, 2*initialDelay)
	}
}

func TestDo_ContextCancellationInterruptsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	op := func(ctx context.Context) (int, error) {
		calls++
		cancel() // 初回失敗後のバックオフ中にキャンセルさせる
		return 0, &APIError{Kind: KindTransient, StatusCode: 500}
	}

	start := time.Now()
	_, err := Do(ctx, op, 2, 10*time.Second)
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("エラー = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("呼び出し回数 = %d, want 1", calls)
	}
	if elapsed > time.Second {
		t.Errorf("キャンセル後の待機が長すぎる: %v", elapsed)
	}
}

func TestSleepCtx_ZeroDelayReturnsImmediately(t *testing.T) {
	if err := sleepCtx(context.Background(), 0); err != nil {
		t.Errorf("sleepCtx(0) がエラーを返した: %v", err)
	}
}

func TestSleepCtx_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("エラー = %v, want context.Canceled", err)
	}
}
