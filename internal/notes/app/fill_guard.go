package app

import (
	"hash/fnv"
	"sync"
)

const fillStripes = 64

type fillStripe struct {
	mu  sync.RWMutex
	gen uint64
}

// fillGuard не дает чтению записать в кэш значение, прочитанное до инвалидации.
// Ключи распределяются по полосам; инвалидация увеличивает поколение полосы.
type fillGuard struct {
	stripes [fillStripes]fillStripe
}

func (g *fillGuard) stripe(key string) *fillStripe {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &g.stripes[h.Sum32()%fillStripes]
}

// snapshot возвращает поколение ключа; вызывается до чтения из хранилища.
func (g *fillGuard) snapshot(key string) uint64 {
	st := g.stripe(key)
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.gen
}

// fill вызывает set, только если с момента snapshot ключ не инвалидировался.
// set выполняется под блокировкой, поэтому удаление не может вклиниться между проверкой и записью.
func (g *fillGuard) fill(key string, gen uint64, set func()) bool {
	st := g.stripe(key)
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.gen != gen {
		return false
	}
	set()
	return true
}

// invalidate увеличивает поколение ключа и затем вызывает del.
func (g *fillGuard) invalidate(key string, del func()) {
	st := g.stripe(key)
	st.mu.Lock()
	st.gen++
	st.mu.Unlock()
	del()
}
