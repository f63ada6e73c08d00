package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/creative-hub/pkg/action"
	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/creative-hub/pkg/gemini"
	"google.golang.org/genai"
)

const (
	characterDescriptionTemplate = `Create a highly detailed visual description for a fictional character based on this summary: "%s". Include specifics about their face, hair, clothing, gear, and overall demeanor. This description will be used in a prompt for an AI image generator.`
	characterPortraitTemplate    = "Portrait of a character. %s"

	musicDescriptionPrompt = "Listen to this music and describe the scene it evokes for an AI image generator. Cover mood, color palette, setting, lighting, and artistic style. Return only the description."
	musicImageTemplate     = "Artistic visualization of music. %s"
)

// describeThenPaint は 1 段目で説明文を作り、2 段目でその説明文から画像を生成するツールです。
// 1 段目が失敗した場合、2 段目は呼び出されません。
type describeThenPaint struct {
	env         *env
	id          string
	action      string
	aspectRatio string
	describe    func(ctx context.Context, client gemini.Client, in Input) (string, error)
	template    string
	validate    func(in Input) string
	state       action.State[DescribedImageResult]
}

func newConsistentCharacter(e *env) *describeThenPaint {
	return &describeThenPaint{
		env:         e,
		id:          IDConsistentCharacter,
		action:      "generate character",
		aspectRatio: "3:4",
		template:    characterPortraitTemplate,
		validate: func(in Input) string {
			if strings.TrimSpace(in.Prompt) == "" {
				return "Please describe your character."
			}
			return ""
		},
		describe: func(ctx context.Context, client gemini.Client, in Input) (string, error) {
			parts := []*genai.Part{genai.NewPartFromText(fmt.Sprintf(characterDescriptionTemplate, in.Prompt))}
			return describeWith(ctx, client, e.deps.Models.Text, parts)
		},
	}
}

func newMusicToImage(e *env) *describeThenPaint {
	return &describeThenPaint{
		env:         e,
		id:          IDMusicToImage,
		action:      "generate image from music",
		aspectRatio: "16:9",
		template:    musicImageTemplate,
		validate: func(in Input) string {
			if in.Audio.IsEmpty() {
				return "Please upload a music file."
			}
			return ""
		},
		describe: func(ctx context.Context, client gemini.Client, in Input) (string, error) {
			parts := []*genai.Part{
				genai.NewPartFromBytes(in.Audio.Data, in.Audio.MimeType),
				genai.NewPartFromText(musicDescriptionPrompt),
			}
			return describeWith(ctx, client, e.deps.Models.Flash, parts)
		},
	}
}

func describeWith(ctx context.Context, client gemini.Client, model string, parts []*genai.Part) (string, error) {
	resp, err := client.GenerateContent(ctx, model, parts, gemini.ContentOptions{})
	if err != nil {
		return "", err
	}
	text, err := gemini.Text(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (t *describeThenPaint) ID() string { return t.id }

func (t *describeThenPaint) Run(ctx context.Context, in Input) error {
	if msg := t.validate(in); msg != "" {
		return t.state.Invalid(msg)
	}
	return action.Run(ctx, &t.state, t.action, func(ctx context.Context) (DescribedImageResult, error) {
		client, err := t.env.client(ctx)
		if err != nil {
			return DescribedImageResult{}, err
		}

		// Step 1: 説明文
		t.state.Progress("Writing description...")
		description, err := t.describe(ctx, client, in)
		if err != nil {
			return DescribedImageResult{}, err
		}

		// Step 2: 画像
		t.state.Progress("Generating image...")
		img, err := paint(ctx, client, domain.GenerationRequest{
			Prompt:      fmt.Sprintf(t.template, description),
			Model:       t.env.deps.Models.Image,
			AspectRatio: t.aspectRatio,
			OutputMime:  "image/jpeg",
		})
		if err != nil {
			return DescribedImageResult{}, err
		}
		return DescribedImageResult{
			Description: description,
			Image:       img,
			ArchiveURI:  t.env.archive(ctx, t.id, img),
		}, nil
	})
}

func (t *describeThenPaint) Snapshot() any { return t.state.Snapshot() }

func (t *describeThenPaint) Reset() error { return t.state.Reset() }
