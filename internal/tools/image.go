package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/creative-hub/pkg/action"
	"github.com/shouni/creative-hub/pkg/domain"
)

// promptImageSpec はプロンプト 1 つから Imagen で画像を 1 枚生成するツールの定義です。
type promptImageSpec struct {
	id          string
	action      string
	validation  string
	template    string // %s にユーザー入力が入る。空ならそのまま使う
	aspectRatio string
	mimeType    string
}

var (
	textToImageSpec = promptImageSpec{
		id:          IDTextToImage,
		action:      "generate image",
		validation:  "Please enter a prompt.",
		aspectRatio: "1:1",
		mimeType:    "image/jpeg",
	}
	textureSpec = promptImageSpec{
		id:          IDTexture,
		action:      "generate texture",
		validation:  "Please describe the texture.",
		template:    "A seamless, tileable texture of %s. Photorealistic, high quality.",
		aspectRatio: "1:1",
		mimeType:    "image/png",
	}
	uiComponentSpec = promptImageSpec{
		id:          IDUIComponent,
		action:      "generate component",
		validation:  "Please describe the UI component.",
		template:    "UI component design for a modern application, isolated on a neutral background. The component is: %s.",
		aspectRatio: "16:9",
		mimeType:    "image/jpeg",
	}
)

// promptImageTool はテキストから画像、テクスチャ、UI コンポーネントの各ツールです。
type promptImageTool struct {
	env   *env
	spec  promptImageSpec
	state action.State[ImageResult]
}

func newPromptImageTool(e *env, spec promptImageSpec) *promptImageTool {
	return &promptImageTool{env: e, spec: spec}
}

func (t *promptImageTool) ID() string { return t.spec.id }

func (t *promptImageTool) Run(ctx context.Context, in Input) error {
	if strings.TrimSpace(in.Prompt) == "" {
		return t.state.Invalid(t.spec.validation)
	}
	prompt := in.Prompt
	if t.spec.template != "" {
		prompt = fmt.Sprintf(t.spec.template, in.Prompt)
	}

	return action.Run(ctx, &t.state, t.spec.action, func(ctx context.Context) (ImageResult, error) {
		client, err := t.env.client(ctx)
		if err != nil {
			return ImageResult{}, err
		}
		img, err := paint(ctx, client, domain.GenerationRequest{
			Prompt:      prompt,
			Model:       t.env.deps.Models.Image,
			AspectRatio: t.spec.aspectRatio,
			OutputMime:  t.spec.mimeType,
		})
		if err != nil {
			return ImageResult{}, err
		}
		return ImageResult{Image: img, Prompt: prompt, ArchiveURI: t.env.archive(ctx, t.spec.id, img)}, nil
	})
}

func (t *promptImageTool) Snapshot() any { return t.state.Snapshot() }

func (t *promptImageTool) Reset() error { return t.state.Reset() }
