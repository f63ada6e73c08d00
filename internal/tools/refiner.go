package tools

import (
	"context"
	"strings"

	"github.com/shouni/creative-hub/pkg/action"
	"github.com/shouni/creative-hub/pkg/gemini"
	"google.golang.org/genai"
)

const refinerInstruction = `You are an expert prompt engineer for generative AI models.
Rewrite and enhance the user's prompt to be more vivid, descriptive, and detailed.
Focus on visual details, lighting, composition, and artistic style.
Return only the refined prompt, without any conversational text or preamble.`

// promptRefiner はユーザーのプロンプトを清書します。
type promptRefiner struct {
	env   *env
	state action.State[TextResult]
}

func (t *promptRefiner) ID() string { return IDPromptRefiner }

func (t *promptRefiner) Run(ctx context.Context, in Input) error {
	if strings.TrimSpace(in.Prompt) == "" {
		return t.state.Invalid("Please enter a prompt to refine.")
	}
	return action.Run(ctx, &t.state, "refine prompt", func(ctx context.Context) (TextResult, error) {
		client, err := t.env.client(ctx)
		if err != nil {
			return TextResult{}, err
		}
		refined, err := refinePrompt(ctx, client, t.env.deps.Models.Text, in.Prompt)
		if err != nil {
			return TextResult{}, err
		}
		return TextResult{Text: refined}, nil
	})
}

func (t *promptRefiner) Snapshot() any { return t.state.Snapshot() }

func (t *promptRefiner) Reset() error { return t.state.Reset() }

// refinePrompt はプロンプト清書用のシステム指示でテキストモデルを呼び出します。
func refinePrompt(ctx context.Context, client gemini.Client, model, prompt string) (string, error) {
	resp, err := client.GenerateContent(ctx, model, []*genai.Part{genai.NewPartFromText(prompt)}, gemini.ContentOptions{
		SystemInstruction: refinerInstruction,
	})
	if err != nil {
		return "", err
	}
	text, err := gemini.Text(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
