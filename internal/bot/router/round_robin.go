package router

import "sync/atomic"

// RoundRobinStrategy выбирает бэкенды по кругу.
type RoundRobinStrategy struct {
	currentIndex uint32
}

// NewRoundRobinStrategy создает новую Round Robin стратегию.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Next возвращает следующий бэкенд из списка.
func (s *RoundRobinStrategy) Next(backends []Backend) (Backend, error) {
	if len(backends) == 0 {
		return nil, ErrNoHealthyBackends
	}
	idx := atomic.AddUint32(&s.currentIndex, 1) - 1
	return backends[idx%uint32(len(backends))], nil
}
