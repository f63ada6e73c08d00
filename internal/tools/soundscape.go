package tools

import (
	"context"
	"mime"
	"strconv"
	"strings"

	"github.com/shouni/creative-hub/pkg/action"
	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/creative-hub/pkg/gemini"
	"github.com/shouni/creative-hub/pkg/media"
	"google.golang.org/genai"
)

// AudioResult は再生中の音声の情報です。音声データ自体は WAV で別途取得します。
type AudioResult struct {
	DurationSeconds float64 `json:"duration_seconds"`
	SampleRate      int     `json:"sample_rate"`
	Channels        int     `json:"channels"`
	Frames          int     `json:"frames"`
	ArchiveURI      string  `json:"archive_uri,omitempty"`
}

// SoundscapeSnapshot はサウンドスケープの状態です。Playing は音声を取得できる間だけ true です。
type SoundscapeSnapshot struct {
	action.Snapshot[AudioResult]
	Playing bool `json:"playing"`
}

// soundscape はテキストを音声に変換し、そのまま再生します。
// インスタンスごとに 1 つの再生リソースを持ち、新しい生成の前に必ず停止します。
type soundscape struct {
	env    *env
	player media.Player
	state  action.State[AudioResult]
}

func newSoundscape(e *env, player media.Player) *soundscape {
	return &soundscape{env: e, player: player}
}

func (t *soundscape) ID() string { return IDSoundscape }

func (t *soundscape) Run(ctx context.Context, in Input) error {
	if strings.TrimSpace(in.Prompt) == "" {
		return t.state.Invalid("Please enter text to generate audio.")
	}
	if err := t.state.Begin(""); err != nil {
		return err
	}
	t.player.Stop()

	result, err := t.generate(ctx, in.Prompt)
	if err != nil {
		t.state.Fail(action.FailureMessage("generate audio", err))
		return err
	}
	t.state.Succeed(result)
	return nil
}

func (t *soundscape) generate(ctx context.Context, text string) (AudioResult, error) {
	client, err := t.env.client(ctx)
	if err != nil {
		return AudioResult{}, err
	}
	models := t.env.deps.Models
	resp, err := client.GenerateContent(ctx, models.TTS, []*genai.Part{genai.NewPartFromText(text)}, gemini.ContentOptions{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		VoiceName:          models.Voice,
	})
	if err != nil {
		return AudioResult{}, err
	}
	audio, err := gemini.FirstInlineData(resp, "No audio data returned from API.")
	if err != nil {
		return AudioResult{}, err
	}

	buf, err := media.ToPlayableAudio(audio.Data, sampleRateOf(audio.MimeType, models.SampleRate), media.DefaultChannels)
	if err != nil {
		return AudioResult{}, err
	}
	if err := t.player.Play(buf); err != nil {
		return AudioResult{}, err
	}
	result := AudioResult{
		DurationSeconds: buf.Duration(),
		SampleRate:      buf.SampleRate,
		Channels:        len(buf.Channels),
		Frames:          buf.Frames(),
	}
	if t.env.deps.Archive != nil {
		result.ArchiveURI = t.env.archive(ctx, IDSoundscape, &domain.Media{Data: buf.WAV(), MimeType: "audio/wav"})
	}
	return result, nil
}

// WAV は再生中の音声を WAV で返します。
func (t *soundscape) WAV() ([]byte, bool) {
	w, ok := t.player.(interface{ WAV() ([]byte, bool) })
	if !ok {
		return nil, false
	}
	return w.WAV()
}

func (t *soundscape) Snapshot() any {
	return SoundscapeSnapshot{Snapshot: t.state.Snapshot(), Playing: t.player.Playing()}
}

func (t *soundscape) Reset() error {
	if err := t.state.Reset(); err != nil {
		return err
	}
	t.player.Stop()
	return nil
}

// sampleRateOf は "audio/L16;codec=pcm;rate=24000" の rate を読み取ります。
func sampleRateOf(mimeType string, fallback int) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return fallback
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return fallback
	}
	return rate
}
