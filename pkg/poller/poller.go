package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultInterval はジョブ状態を再取得するまでの固定待機時間です。
const DefaultInterval = 10 * time.Second

// Poller は長時間ジョブを「送信 → 完了まで一定間隔で再取得 → 結果取得」の順に進めます。
// 試行回数の上限やバックオフは持ちません。H はジョブハンドル、R は最終結果の型です。
type Poller[H, R any] struct {
	// Poll は同じハンドルでジョブ状態を再取得します。
	Poll func(ctx context.Context, handle H) (H, error)
	// Done はジョブが完了していれば true を返します。
	Done func(handle H) bool
	// Fetch は完了したハンドルから結果を取り出します。
	Fetch func(ctx context.Context, handle H) (R, error)
	// Interval は再取得までの待機時間です。0 なら DefaultInterval です。
	Interval time.Duration
	// Sleep は待機の実装です。nil なら context 対応の time.Timer を使います。
	Sleep func(ctx context.Context, d time.Duration) error
	// Classify は途中で発生したエラーを分類します。nil ならそのまま返します。
	Classify func(err error) error
	// OnProgress は状態遷移ごとに呼ばれます（任意）。
	OnProgress func(stage Stage)
}

// Stage はジョブの進行状態です。
type Stage string

const (
	StageSubmitted Stage = "submitted"
	StagePolling   Stage = "polling"
	StageFetching  Stage = "fetching"
	StageDone      Stage = "done"
	StageFailed    Stage = "failed"
)

// Run は submit でジョブを開始し、完了まで待って結果を返します。
func (p *Poller[H, R]) Run(ctx context.Context, submit func(ctx context.Context) (H, error)) (R, error) {
	var zero R
	if p.Poll == nil || p.Done == nil || p.Fetch == nil {
		return zero, fmt.Errorf("poller is not configured: Poll, Done and Fetch are required")
	}

	handle, err := submit(ctx)
	if err != nil {
		return zero, p.fail(err)
	}
	p.progress(StageSubmitted)

	polls := 0
	for !p.Done(handle) {
		p.progress(StagePolling)
		if err := p.sleep(ctx, p.interval()); err != nil {
			return zero, p.fail(err)
		}
		handle, err = p.Poll(ctx, handle)
		if err != nil {
			return zero, p.fail(err)
		}
		polls++
		slog.DebugContext(ctx, "ジョブ状態を再取得しました", "polls", polls)
	}

	p.progress(StageFetching)
	result, err := p.Fetch(ctx, handle)
	if err != nil {
		return zero, p.fail(err)
	}
	p.progress(StageDone)
	return result, nil
}

func (p *Poller[H, R]) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultInterval
	}
	return p.Interval
}

func (p *Poller[H, R]) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

func (p *Poller[H, R]) fail(err error) error {
	p.progress(StageFailed)
	if p.Classify != nil {
		return p.Classify(err)
	}
	return err
}

func (p *Poller[H, R]) progress(s Stage) {
	if p.OnProgress != nil {
		p.OnProgress(s)
	}
}

// Sleep は d だけ待機します。context がキャンセルされた場合はその時点でエラーを返します。
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
