package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shouni/creative-hub/pkg/action"
	"github.com/shouni/creative-hub/pkg/domain"
	"github.com/shouni/creative-hub/pkg/gemini"
	"github.com/shouni/creative-hub/pkg/utils"
	"google.golang.org/genai"
)

const (
	msgInvalidPromptArray  = "AI did not return a valid array of prompts."
	msgInvalidPromptObject = "AI did not return a valid object of prompts."

	storyboardTemplate  = `Based on the following story, generate a JSON array of exactly 4 distinct image prompts for a storyboard. Each prompt should be a detailed, descriptive string ready for an image generation model. Story: "%s"`
	spriteSheetTemplate = `Generate a JSON array of exactly 6 distinct image prompts for an animation sprite sheet. The prompts should describe sequential frames of the action. Each prompt must be detailed and include the same character description to maintain consistency. Action: "%s"`
	assetPackTemplate   = `I need to create a pack of assets with a consistent style. The overall style is: "%s". The assets I need are: %s. Generate a JSON object where keys are the asset names and values are detailed, unique image prompts for each asset, ensuring they all strictly follow the defined style.`
)

// batchSpec はプロンプト列を先に作り、画像は項目ごとに要求された時だけ生成するツールの定義です。
type batchSpec struct {
	id          string
	action      string
	validation  string
	aspectRatio string
	mimeType    string
	// plan は入力を検証し、プロンプト生成のリクエストとレスポンスの解釈方法を返します。
	// 入力が不足している場合は ok=false です。
	plan func(in Input) (prompt string, opts gemini.ContentOptions, parse func(*genai.GenerateContentResponse) ([]domain.BatchItem, error), ok bool)
}

var (
	storyboardSpec = batchSpec{
		id:          IDStoryboard,
		action:      "generate storyboard",
		validation:  "Please enter a story.",
		aspectRatio: "16:9",
		mimeType:    "image/jpeg",
		plan:        arrayPlan(storyboardTemplate, "A detailed image prompt for a storyboard scene."),
	}
	spriteSheetSpec = batchSpec{
		id:          IDSpriteSheet,
		action:      "generate frames",
		validation:  "Please describe the character and action.",
		aspectRatio: "1:1",
		mimeType:    "image/jpeg",
		plan:        arrayPlan(spriteSheetTemplate, "A detailed image prompt for a single animation frame."),
	}
	assetPackSpec = batchSpec{
		id:          IDAssetPack,
		action:      "generate prompts",
		validation:  "Please define a style and list the assets.",
		aspectRatio: "1:1",
		mimeType:    "image/png",
		plan:        assetPackPlan,
	}
)

func arrayPlan(template, itemDescription string) func(in Input) (string, gemini.ContentOptions, func(*genai.GenerateContentResponse) ([]domain.BatchItem, error), bool) {
	return func(in Input) (string, gemini.ContentOptions, func(*genai.GenerateContentResponse) ([]domain.BatchItem, error), bool) {
		if strings.TrimSpace(in.Prompt) == "" {
			return "", gemini.ContentOptions{}, nil, false
		}
		opts := gemini.ContentOptions{ResponseSchema: gemini.StringArraySchema(itemDescription)}
		return fmt.Sprintf(template, in.Prompt), opts, parsePromptArray, true
	}
}

// parsePromptArray はモデルが返した配列をそのままの件数で項目にします。
func parsePromptArray(resp *genai.GenerateContentResponse) ([]domain.BatchItem, error) {
	var prompts []string
	if err := gemini.DecodeJSON(resp, &prompts, msgInvalidPromptArray); err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, domain.NewMalformedError("DecodeJSON", msgInvalidPromptArray)
	}
	items := make([]domain.BatchItem, len(prompts))
	for i, p := range prompts {
		items[i] = domain.BatchItem{Prompt: p}
	}
	return items, nil
}

func assetPackPlan(in Input) (string, gemini.ContentOptions, func(*genai.GenerateContentResponse) ([]domain.BatchItem, error), bool) {
	names := utils.SplitAndTrim(in.Items, ",")
	if strings.TrimSpace(in.Style) == "" || len(names) == 0 {
		return "", gemini.ContentOptions{}, nil, false
	}
	prompt := fmt.Sprintf(assetPackTemplate, in.Style, strings.Join(names, ", "))
	opts := gemini.ContentOptions{ResponseSchema: gemini.StringMapSchema(names)}
	parse := func(resp *genai.GenerateContentResponse) ([]domain.BatchItem, error) {
		return parsePromptObject(resp, names)
	}
	return prompt, opts, parse, true
}

// parsePromptObject は入力リストの順に項目を並べ、リストにないキーは名前順で末尾に追加します。
func parsePromptObject(resp *genai.GenerateContentResponse, names []string) ([]domain.BatchItem, error) {
	var prompts map[string]string
	if err := gemini.DecodeJSON(resp, &prompts, msgInvalidPromptObject); err != nil {
		return nil, err
	}

	items := make([]domain.BatchItem, 0, len(prompts))
	seen := make(map[string]bool, len(prompts))
	for _, name := range names {
		if p, ok := prompts[name]; ok && !seen[name] {
			items = append(items, domain.BatchItem{Name: name, Prompt: p})
			seen[name] = true
		}
	}
	extra := make([]string, 0)
	for name := range prompts {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		items = append(items, domain.BatchItem{Name: name, Prompt: prompts[name]})
	}

	if len(items) == 0 {
		return nil, domain.NewMalformedError("DecodeJSON", msgInvalidPromptObject)
	}
	return items, nil
}

// BatchSnapshot はバッチツールの状態です。Result にはプロンプト生成で得た項目数が入ります。
type BatchSnapshot struct {
	action.Snapshot[int]
	Items []domain.BatchItem `json:"items"`
}

// batchTool はストーリーボード、スプライトシート、アセットパックのツールです。
type batchTool struct {
	env   *env
	spec  batchSpec
	state action.State[int]

	mu    sync.Mutex
	items []domain.BatchItem
	// generation はプロンプト生成のたびに進み、古い項目生成の結果が新しい項目に書き込まれるのを防ぎます。
	generation uint64
}

func newBatchTool(e *env, spec batchSpec) *batchTool {
	return &batchTool{env: e, spec: spec}
}

func (t *batchTool) ID() string { return t.spec.id }

// Run はプロンプト列を生成し、画像なしの項目として保存します。画像は生成しません。
func (t *batchTool) Run(ctx context.Context, in Input) error {
	prompt, opts, parse, ok := t.spec.plan(in)
	if !ok {
		return t.state.Invalid(t.spec.validation)
	}
	if err := t.state.Begin(""); err != nil {
		return err
	}

	// 直前の項目は開始時点で破棄する
	t.mu.Lock()
	t.items = nil
	t.generation++
	generation := t.generation
	t.mu.Unlock()

	items, err := t.generatePrompts(ctx, prompt, opts, parse)
	if err != nil {
		t.state.Fail(action.FailureMessage(t.spec.action, err))
		return err
	}

	t.mu.Lock()
	if generation != t.generation {
		n := len(t.items)
		t.mu.Unlock()
		slog.InfoContext(ctx, "項目が作り直されたためプロンプト列を破棄します", "tool", t.spec.id)
		t.state.Succeed(n)
		return nil
	}
	t.items = items
	t.mu.Unlock()
	t.state.Succeed(len(items))
	slog.InfoContext(ctx, "プロンプト列を生成しました", "tool", t.spec.id, "items", len(items))
	return nil
}

func (t *batchTool) generatePrompts(ctx context.Context, prompt string, opts gemini.ContentOptions, parse func(*genai.GenerateContentResponse) ([]domain.BatchItem, error)) ([]domain.BatchItem, error) {
	client, err := t.env.client(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := client.GenerateContent(ctx, t.env.deps.Models.Text, []*genai.Part{genai.NewPartFromText(prompt)}, opts)
	if err != nil {
		return nil, err
	}
	return parse(resp)
}

// GenerateItem は index 番目の項目の画像だけを生成します。他の項目には触れません。
func (t *batchTool) GenerateItem(ctx context.Context, index int) error {
	if t.state.Loading() {
		return action.ErrBusy
	}

	t.mu.Lock()
	if index < 0 || index >= len(t.items) {
		t.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if t.items[index].Loading {
		t.mu.Unlock()
		return action.ErrBusy
	}
	t.items[index].Loading = true
	t.items[index].Error = ""
	prompt := t.items[index].Prompt
	generation := t.generation
	t.mu.Unlock()

	img, err := t.generateImage(ctx, prompt)
	var uri string
	if err == nil {
		uri = t.env.archive(ctx, t.spec.id, img)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if generation != t.generation {
		slog.InfoContext(ctx, "プロンプト列が作り直されたため項目の結果を破棄します", "tool", t.spec.id, "index", index)
		return err
	}
	t.items[index].Loading = false
	if err != nil {
		t.items[index].Error = action.FailureMessage("generate image", err)
		slog.WarnContext(ctx, "項目の画像生成に失敗しました", "tool", t.spec.id, "index", index, "error", err)
		return err
	}
	t.items[index].Image = img
	t.items[index].ArchiveURI = uri
	return nil
}

func (t *batchTool) generateImage(ctx context.Context, prompt string) (*domain.Media, error) {
	client, err := t.env.client(ctx)
	if err != nil {
		return nil, err
	}
	return paint(ctx, client, domain.GenerationRequest{
		Prompt:      prompt,
		Model:       t.env.deps.Models.Image,
		AspectRatio: t.spec.aspectRatio,
		OutputMime:  t.spec.mimeType,
	})
}

// Items は現在の項目のコピーを返します。
func (t *batchTool) Items() []domain.BatchItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.BatchItem, len(t.items))
	copy(out, t.items)
	return out
}

func (t *batchTool) Snapshot() any {
	return BatchSnapshot{Snapshot: t.state.Snapshot(), Items: t.Items()}
}

// Reset はプロンプト生成中なら ErrBusy を返します。生成中の項目の結果は破棄されます。
func (t *batchTool) Reset() error {
	if err := t.state.Reset(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = nil
	t.generation++
	return nil
}
