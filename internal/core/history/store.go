package history

import (
	"container/list"
	"strings"
	"sync"

	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/infrastructure/metrics"
	"recipe-aggregator/internal/pkg/common"

	"go.uber.org/zap"
)

const defaultMaxClients = 10000

// Store 依客戶端 ID 保存各自的最近食譜；追蹤的客戶端數量有上限，
// 超過時淘汰最久未使用的
type Store struct {
	mu         sync.Mutex
	capacity   int
	maxClients int
	clients    map[string]*list.Element
	order      *list.List
}

type clientEntry struct {
	id    string
	queue *Queue[recipe.Recipe]
}

// NewStore 建立 Store
func NewStore(capacity, maxClients int) *Store {
	if maxClients <= 0 {
		maxClients = defaultMaxClients
	}
	return &Store{
		capacity:   capacity,
		maxClients: maxClients,
		clients:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Queue 取得客戶端的佇列，不存在時建立
func (s *Store) Queue(clientID string) (*Queue[recipe.Recipe], error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, common.InvalidArgumentf("client id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.clients[clientID]; ok {
		s.order.MoveToFront(e)
		return e.Value.(*clientEntry).queue, nil
	}

	entry := &clientEntry{id: clientID, queue: NewQueue[recipe.Recipe](s.capacity)}
	s.clients[clientID] = s.order.PushFront(entry)

	for s.order.Len() > s.maxClients {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		evicted := oldest.Value.(*clientEntry).id
		delete(s.clients, evicted)
		common.LogDebug("淘汰最近瀏覽紀錄", zap.String("client_id", evicted))
	}

	metrics.HistoryClients.Set(float64(s.order.Len()))
	return entry.queue, nil
}

// Add 加入客戶端最近瀏覽的食譜
func (s *Store) Add(clientID string, r recipe.Recipe) ([]recipe.Recipe, error) {
	q, err := s.Queue(clientID)
	if err != nil {
		return nil, err
	}
	q.Enqueue(r)
	return q.ToArray(), nil
}

// List 由新到舊
func (s *Store) List(clientID string) ([]recipe.Recipe, error) {
	q, err := s.Queue(clientID)
	if err != nil {
		return nil, err
	}
	return q.ToArray(), nil
}

// RemoveOldest 移除最舊的一筆
func (s *Store) RemoveOldest(clientID string) (recipe.Recipe, error) {
	q, err := s.Queue(clientID)
	if err != nil {
		return recipe.Recipe{}, err
	}
	return q.Dequeue()
}

// Clients 目前追蹤的客戶端數
func (s *Store) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
