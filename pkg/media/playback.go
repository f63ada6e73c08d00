package media

import (
	"sync"
)

// Player は 1 つの再生リソースを表します。新しい音声を流す前に必ず Stop されます。
type Player interface {
	Play(buf *AudioBuffer) error
	Stop()
	Playing() bool
}

// Track は最後に再生された音声を保持する Player です。
// HTTP 経由でクライアントに配信する WAV の供給元になります。
type Track struct {
	mu      sync.RWMutex
	current *AudioBuffer
	wav     []byte
}

// NewTrack は空の Track を生成します。
func NewTrack() *Track {
	return &Track{}
}

// Play は buf を現在の音声として設定します。
func (t *Track) Play(buf *AudioBuffer) error {
	wav := buf.WAV()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = buf
	t.wav = wav
	return nil
}

// Stop は再生中の音声を破棄します。何も再生していなければ何もしません。
func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = nil
	t.wav = nil
}

// WAV は現在の音声を WAV で返します。再生中でなければ false です。
func (t *Track) WAV() ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.wav == nil {
		return nil, false
	}
	return t.wav, true
}

// Playing は再生中かどうかを返します。
func (t *Track) Playing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current != nil
}
