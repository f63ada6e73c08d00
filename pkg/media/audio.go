package media

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// DefaultSampleRate は TTS モデルが返す PCM のサンプルレートです。
	DefaultSampleRate = 24000
	// DefaultChannels は TTS モデルが返す PCM のチャンネル数です。
	DefaultChannels = 1

	bytesPerSample = 2
)

// AudioBuffer はチャンネルごとに分離された再生可能な音声です。
type AudioBuffer struct {
	SampleRate int
	Channels   [][]float32
}

// Frames はチャンネルあたりのサンプル数を返します。
func (b *AudioBuffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration は再生時間（秒）を返します。
func (b *AudioBuffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// ToPlayableAudio はリトルエンディアン 16bit PCM を [-1, 1) の float に変換し、
// インターリーブをチャンネルごとに分解します。
// 奇数バイトやフレームの端数はエラーになります。
func ToPlayableAudio(pcm []byte, sampleRate, channels int) (*AudioBuffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("サンプルレートが不正です: %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("チャンネル数が不正です: %d", channels)
	}
	if len(pcm)%bytesPerSample != 0 {
		return nil, fmt.Errorf("PCM のバイト数が奇数です: %d", len(pcm))
	}

	samples := len(pcm) / bytesPerSample
	if samples%channels != 0 {
		return nil, fmt.Errorf("PCM のサンプル数 %d がチャンネル数 %d で割り切れません", samples, channels)
	}

	frames := samples / channels
	buf := &AudioBuffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * bytesPerSample
			s := int16(binary.LittleEndian.Uint16(pcm[off:]))
			buf.Channels[c][i] = float32(s) / 32768.0
		}
	}
	return buf, nil
}

// WAV は 16bit PCM の RIFF/WAVE としてエンコードします。
func (b *AudioBuffer) WAV() []byte {
	channels := len(b.Channels)
	frames := b.Frames()
	dataSize := frames * channels * bytesPerSample

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(b.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(b.SampleRate*channels*bytesPerSample))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*bytesPerSample))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(8*bytesPerSample))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			_ = binary.Write(&buf, binary.LittleEndian, toInt16(b.Channels[c][i]))
		}
	}
	return buf.Bytes()
}

func toInt16(v float32) int16 {
	s := math.Round(float64(v) * 32768.0)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}
