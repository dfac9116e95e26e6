package revision

import "sync"

// keyLocks 按规范路径提供进程内互斥锁，无人持有时回收.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*keyLock)}
}

// lock 获取 key 对应的锁，返回的函数用于释放.
func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()

	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}

	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--

		if l.refs == 0 {
			delete(k.locks, key)
		}

		k.mu.Unlock()
	}
}

// size 返回当前登记的锁数量.
func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.locks)
}

// LockAsset 锁住整个资产，覆盖调用方 "检查 -> Save -> 写库" 的全过程.
//
// 与 Save 内部的路径锁位于不同的键空间，持有期间可以调用 Save 与 Discard.
func (s *Store) LockAsset(assetKey string) func() {
	return s.locks.lock("asset\x00" + SafeKey(assetKey))
}
