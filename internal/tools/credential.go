package tools

import (
	"strings"
	"sync"

	"github.com/shouni/creative-hub/pkg/domain"
)

const msgSelectKey = "Please select an API key."

// Credential はワークスペースで使用する API キーを保持します。
// requireSelection が true の場合、Select されたキーだけが使用されます。
type Credential struct {
	mu               sync.RWMutex
	static           string
	selected         string
	requireSelection bool
}

// NewCredential は設定済みのキーとキー選択モードから Credential を生成します。
func NewCredential(static string, requireSelection bool) *Credential {
	return &Credential{static: static, requireSelection: requireSelection}
}

// Key は呼び出しに使用するキーを返します。
func (c *Credential) Key() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected != "" {
		return c.selected, nil
	}
	if !c.requireSelection && c.static != "" {
		return c.static, nil
	}
	return "", &domain.Error{Kind: domain.KindCredentialExpired, Op: "Credential", Message: msgSelectKey}
}

// Select はユーザーが選択したキーを設定します。
func (c *Credential) Select(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.NewValidationError(msgSelectKey)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = key
	return nil
}

// Invalidate は選択済みのキーを破棄します。設定済みのキーには影響しません。
func (c *Credential) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
}

// Available は使用可能なキーがあるかどうかを返します。
func (c *Credential) Available() bool {
	_, err := c.Key()
	return err == nil
}
