package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/creative-hub/pkg/action"
	"github.com/shouni/creative-hub/pkg/domain"
)

// imageEditSpec は画像と指示文をマルチモーダルモデルに渡して画像を得るツールの定義です。
type imageEditSpec struct {
	id         string
	action     string
	validation string
	template   string
	notFound   string
}

var (
	imageEditorSpec = imageEditSpec{
		id:         IDImageEditor,
		action:     "edit image",
		validation: "Please provide an image and an edit instruction.",
		notFound:   "The model did not return an edited image.",
	}
	imageRestylerSpec = imageEditSpec{
		id:         IDImageRestyler,
		action:     "restyle image",
		validation: "Please provide an image and a style prompt.",
		template:   "Restyle this image in the following mood and artistic style: %s",
		notFound:   "The model did not return a restyled image.",
	}
)

// imageEditTool は AI 画像エディタと画像リスタイルのツールです。
type imageEditTool struct {
	env   *env
	spec  imageEditSpec
	state action.State[ImageResult]
}

func newImageEditTool(e *env, spec imageEditSpec) *imageEditTool {
	return &imageEditTool{env: e, spec: spec}
}

func (t *imageEditTool) ID() string { return t.spec.id }

func (t *imageEditTool) Run(ctx context.Context, in Input) error {
	if strings.TrimSpace(in.Prompt) == "" || in.Image.IsEmpty() {
		return t.state.Invalid(t.spec.validation)
	}
	instruction := in.Prompt
	if t.spec.template != "" {
		instruction = fmt.Sprintf(t.spec.template, in.Prompt)
	}

	return action.Run(ctx, &t.state, t.spec.action, func(ctx context.Context) (ImageResult, error) {
		client, err := t.env.client(ctx)
		if err != nil {
			return ImageResult{}, err
		}
		img, err := repaint(ctx, client, domain.GenerationRequest{
			Prompt:    instruction,
			Reference: in.Image,
			Model:     t.env.deps.Models.Edit,
		}, t.spec.notFound)
		if err != nil {
			return ImageResult{}, err
		}
		return ImageResult{Image: img, Prompt: instruction, ArchiveURI: t.env.archive(ctx, t.spec.id, img)}, nil
	})
}

func (t *imageEditTool) Snapshot() any { return t.state.Snapshot() }

func (t *imageEditTool) Reset() error { return t.state.Reset() }
