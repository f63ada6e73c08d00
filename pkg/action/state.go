package action

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shouni/creative-hub/pkg/domain"
)

// ErrBusy は実行中の State に対して新しい実行を開始しようとした場合のエラーです。
var ErrBusy = errors.New("a request is already in progress")

// Status は非同期アクションの状態です。
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// State は 1 つのツールが持つ「待機中 / 実行中 / 成功 / 失敗」の状態コンテナです。
// 同時に実行できるリクエストは 1 つだけです。ゼロ値で使用できます。
type State[T any] struct {
	mu        sync.RWMutex
	status    Status
	result    T
	hasResult bool
	errMsg    string
	progress  string
}

// Snapshot は State のある時点のコピーです。
type Snapshot[T any] struct {
	Status   Status `json:"status"`
	Loading  bool   `json:"loading"`
	Result   *T     `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
	Progress string `json:"progress,omitempty"`
}

// Begin は実行を開始します。直前の結果とエラーはこの時点で破棄されます。
func (s *State[T]) Begin(progress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusLoading {
		return ErrBusy
	}
	var zero T
	s.status = StatusLoading
	s.result = zero
	s.hasResult = false
	s.errMsg = ""
	s.progress = progress
	return nil
}

// Progress は実行中の進捗メッセージを更新します。
func (s *State[T]) Progress(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusLoading {
		s.progress = msg
	}
}

// Succeed は結果を保存して実行を終了します。
func (s *State[T]) Succeed(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusSuccess
	s.result = v
	s.hasResult = true
	s.errMsg = ""
	s.progress = ""
}

// Fail はエラーメッセージを保存して実行を終了します。
func (s *State[T]) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.errMsg = msg
	s.progress = ""
}

// Invalid は入力検証エラーを記録します。リモート呼び出しは行われず、直前の結果は残ります。
func (s *State[T]) Invalid(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusLoading {
		return ErrBusy
	}
	s.status = StatusFailed
	s.errMsg = msg
	return domain.NewValidationError(msg)
}

// Reset は初期状態に戻します。実行中は ErrBusy を返し、何も変更しません。
func (s *State[T]) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusLoading {
		return ErrBusy
	}
	var zero T
	s.status = StatusIdle
	s.result = zero
	s.hasResult = false
	s.errMsg = ""
	s.progress = ""
	return nil
}

// Loading は実行中かどうかを返します。
func (s *State[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status == StatusLoading
}

// Result は直近の成功結果を返します。
func (s *State[T]) Result() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.hasResult
}

// Snapshot は現在の状態をコピーして返します。
func (s *State[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := s.status
	if status == "" {
		status = StatusIdle
	}
	snap := Snapshot[T]{
		Status:   status,
		Loading:  status == StatusLoading,
		Error:    s.errMsg,
		Progress: s.progress,
	}
	if s.hasResult {
		r := s.result
		snap.Result = &r
	}
	return snap
}

// FailureMessage は "Failed to <action>. <message>" 形式のユーザー向けメッセージを組み立てます。
func FailureMessage(action string, err error) string {
	return fmt.Sprintf("Failed to %s. %s", action, domain.MessageOf(err))
}

// Run は Begin → fn → Succeed/Fail を 1 回の実行として行います。
// fn のエラーは FailureMessage で整形して保存され、呼び出し元にもそのまま返ります。
func Run[T any](ctx context.Context, s *State[T], action string, fn func(ctx context.Context) (T, error)) error {
	if err := s.Begin(""); err != nil {
		return err
	}
	v, err := fn(ctx)
	if err != nil {
		s.Fail(FailureMessage(action, err))
		return err
	}
	s.Succeed(v)
	return nil
}
