package tools

import (
	"fmt"

	"github.com/shouni/creative-hub/pkg/media"
)

// Suite は 1 つのワークスペースが持つ全ツールのインスタンスです。ツール同士は状態を共有しません。
type Suite struct {
	workspace string
	cred      *Credential
	order     []string
	tools     map[string]Tool
}

// NewSuite はワークスペース用に全ツールを生成します。
func NewSuite(deps Deps, workspaceID string) (*Suite, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("ツールの依存関係が不正です: %w", err)
	}
	e := &env{
		deps:      deps,
		cred:      NewCredential(deps.APIKey, deps.RequireKeySelection),
		workspace: workspaceID,
	}

	list := []Tool{
		newPromptImageTool(e, textToImageSpec),
		&promptRefiner{env: e},
		newImageEditTool(e, imageEditorSpec),
		newImageEditTool(e, imageRestylerSpec),
		newConsistentCharacter(e),
		newPromptImageTool(e, textureSpec),
		newBatchTool(e, assetPackSpec),
		newPromptImageTool(e, uiComponentSpec),
		newVideoTool(e, imageToVideoSpec),
		newVideoTool(e, videoRestyleSpec),
		newVideoTool(e, videoStyleTransferSpec),
		newVideoTool(e, sceneInterpolationSpec),
		newVideoTool(e, textToVideoSpec),
		newBatchTool(e, storyboardSpec),
		newBatchTool(e, spriteSheetSpec),
		newSoundscape(e, media.NewTrack()),
		newMusicToImage(e),
	}

	s := &Suite{
		workspace: workspaceID,
		cred:      e.cred,
		order:     make([]string, 0, len(list)),
		tools:     make(map[string]Tool, len(list)),
	}
	for _, t := range list {
		s.order = append(s.order, t.ID())
		s.tools[t.ID()] = t
	}
	return s, nil
}

// Workspace はワークスペース ID を返します。
func (s *Suite) Workspace() string { return s.workspace }

// Tool は ID に対応するツールを返します。
func (s *Suite) Tool(id string) (Tool, error) {
	t, ok := s.tools[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, id)
	}
	return t, nil
}

// Tools はカタログ順に全ツールを返します。
func (s *Suite) Tools() []Tool {
	out := make([]Tool, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tools[id])
	}
	return out
}

// SelectKey はキーを選択し、キー選択が必要な全ツールを使用可能にします。
func (s *Suite) SelectKey(key string) error {
	if err := s.cred.Select(key); err != nil {
		return err
	}
	for _, t := range s.Tools() {
		if g, ok := t.(KeyGated); ok {
			if err := g.Authorize(); err != nil {
				return err
			}
		}
	}
	return nil
}

// ClearKey は選択済みのキーを破棄します。
// 使用可能なキーがなくなった場合は、キー選択が必要なツールもキー選択前の状態に戻します。
func (s *Suite) ClearKey() {
	s.cred.Invalidate()
	if s.cred.Available() {
		return
	}
	for _, t := range s.Tools() {
		if r, ok := t.(interface{ revoke() }); ok {
			r.revoke()
		}
	}
}

// RunningJobs はバックグラウンドで実行中のジョブの数を返します。
func (s *Suite) RunningJobs() int {
	n := 0
	for _, t := range s.Tools() {
		if _, ok := t.(Starter); !ok {
			continue
		}
		if l, ok := t.(interface{ Loading() bool }); ok && l.Loading() {
			n++
		}
	}
	return n
}

// KeyAvailable は使用可能なキーがあるかどうかを返します。
func (s *Suite) KeyAvailable() bool { return s.cred.Available() }
