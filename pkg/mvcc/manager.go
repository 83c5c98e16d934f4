package mvcc

import (
	"fmt"
	"sync"
	"time"
)

// ==================== 配置 ====================

// Config MVCC配置
type Config struct {
	MaxActiveTxns int // 最大活跃事务数
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxActiveTxns: 10000,
	}
}

// ==================== 事务管理器 ====================

// Manager 事务管理器
type Manager struct {
	config       *Config
	nextTxnID    TxnID
	lastCommit   CommitID
	transactions map[TxnID]*Transaction // 活跃事务
	mu           sync.RWMutex
	closed       bool
}

var (
	globalManager *Manager
	globalOnce    sync.Once
)

// NewManager 创建事务管理器
func NewManager(config *Config) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	return &Manager{
		config:       config,
		nextTxnID:    BootstrapTxnID,
		lastCommit:   BootstrapCommitID,
		transactions: make(map[TxnID]*Transaction),
	}
}

// GetGlobalManager 获取全局管理器（单例）
func GetGlobalManager() *Manager {
	globalOnce.Do(func() {
		globalManager = NewManager(DefaultConfig())
	})
	return globalManager
}

// Begin 开始一个事务
func (m *Manager) Begin() (*Transaction, error) {
	return m.BeginReadOnly(false)
}

// BeginReadOnly 开始一个事务，可指定只读
func (m *Manager) BeginReadOnly(readOnly bool) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("transaction manager is closed")
	}
	if len(m.transactions) >= m.config.MaxActiveTxns {
		return nil, fmt.Errorf("too many active transactions: %d", len(m.transactions))
	}

	id := m.nextTxnID
	m.nextTxnID++

	txn := &Transaction{
		id:           id,
		lastCommitID: m.lastCommit,
		status:       TxnStatusInProgress,
		readOnly:     readOnly,
		startTime:    time.Now(),
	}
	m.transactions[id] = txn
	return txn, nil
}

// Commit 提交事务：分配提交ID并应用所有已记录动作
func (m *Manager) Commit(txn *Transaction) (CommitID, error) {
	if txn == nil {
		return InvalidCommitID, fmt.Errorf("nil transaction")
	}

	m.mu.Lock()
	if txn.Status() != TxnStatusInProgress {
		m.mu.Unlock()
		return InvalidCommitID, fmt.Errorf("transaction %s is not in progress", txn.id)
	}
	cid := m.lastCommit + 1
	m.lastCommit = cid
	delete(m.transactions, txn.id)
	m.mu.Unlock()

	for _, a := range txn.takeActions() {
		a.Commit(cid)
	}
	txn.setStatus(TxnStatusCommitted)
	return cid, nil
}

// Abort 回滚事务：逆序撤销所有已记录动作
func (m *Manager) Abort(txn *Transaction) error {
	if txn == nil {
		return fmt.Errorf("nil transaction")
	}

	m.mu.Lock()
	if txn.Status() != TxnStatusInProgress {
		m.mu.Unlock()
		return fmt.Errorf("transaction %s is not in progress", txn.id)
	}
	delete(m.transactions, txn.id)
	m.mu.Unlock()

	actions := txn.takeActions()
	for i := len(actions) - 1; i >= 0; i-- {
		actions[i].Abort()
	}
	txn.setStatus(TxnStatusAborted)
	return nil
}

// LastCommittedID 返回最新已提交ID
func (m *Manager) LastCommittedID() CommitID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCommit
}

// ActiveCount 返回活跃事务数
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions)
}

// IsTransactionActive 检查事务是否活跃
func (m *Manager) IsTransactionActive(id TxnID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.transactions[id]
	return ok
}

// Close 关闭管理器，回滚所有活跃事务
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	active := make([]*Transaction, 0, len(m.transactions))
	for _, txn := range m.transactions {
		active = append(active, txn)
	}
	m.transactions = make(map[TxnID]*Transaction)
	m.mu.Unlock()

	for _, txn := range active {
		actions := txn.takeActions()
		for i := len(actions) - 1; i >= 0; i-- {
			actions[i].Abort()
		}
		txn.setStatus(TxnStatusAborted)
	}
	return nil
}
