package workspace

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/creative-hub/internal/tools"
)

// Store はセッションごとのツール群 (ワークスペース) を保持します。
// 最後にアクセスされてから ttl が経過したワークスペースは破棄されます。
type Store struct {
	mu    sync.Mutex
	cache *cache.Cache
	deps  tools.Deps
	ttl   time.Duration
}

// NewStore は Store を初期化します。
func NewStore(deps tools.Deps, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("workspace TTL must be positive: %s", ttl)
	}
	return &Store{
		cache: cache.New(ttl, ttl/2),
		deps:  deps,
		ttl:   ttl,
	}, nil
}

// Get は id のワークスペースを返します。なければ新しく作成します。
func (s *Store) Get(id string) (*tools.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache.Get(id); ok {
		if suite, ok := v.(*tools.Suite); ok {
			s.cache.Set(id, suite, s.ttl)
			return suite, nil
		}
	}

	suite, err := tools.NewSuite(s.deps, id)
	if err != nil {
		return nil, fmt.Errorf("ワークスペースの作成に失敗しました: %w", err)
	}
	s.cache.Set(id, suite, s.ttl)
	slog.Info("ワークスペースを作成しました", "workspace", id)
	return suite, nil
}

// Len は保持しているワークスペース数を返します。
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// RunningJobs は全ワークスペースでバックグラウンド実行中のジョブ数を返します。
func (s *Store) RunningJobs() int {
	n := 0
	for _, item := range s.cache.Items() {
		if suite, ok := item.Object.(*tools.Suite); ok {
			n += suite.RunningJobs()
		}
	}
	return n
}
