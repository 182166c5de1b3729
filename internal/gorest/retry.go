package gorest

import (
	"context"
	"time"
)

const (
	// DefaultMaxRetries は初回実行後の最大リトライ回数。
	DefaultMaxRetries = 2
	// DefaultInitialDelay は指数バックオフの初回遅延。
	DefaultInitialDelay = 1000 * time.Millisecond
)

// Do は操作を最大maxRetries+1回まで実行する汎用リトライラッパー。
//
//   - 404（NotFound）は終端エラーとして即座に返し、リトライしない。
//   - それ以外の失敗は試行間に指数バックオフ（initialDelay, 2倍ずつ）を
//     挟んで最大maxRetries回リトライする。遅延は協調的で、コンテキストの
//     キャンセルで中断できる。
//   - 最終試行も失敗した場合は最後のエラーをそのまま伝播する
//     （非404の失敗を黙って飲み込むことはしない）。
func Do[T any](ctx context.Context, op func(context.Context) (T, error), maxRetries int, initialDelay time.Duration) (T, error) {
	var zero T
	delay := initialDelay

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if IsNotFound(err) {
			return zero, err
		}

		if attempt >= maxRetries {
			return zero, err
		}

		if sleepErr := sleepCtx(ctx, delay); sleepErr != nil {
			return zero, sleepErr
		}
		delay *= 2
	}
}

// sleepCtx はコンテキストを尊重する協調的な待機を行う。
// キャンセルされた場合はctx.Err()を返す。
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
