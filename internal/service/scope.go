package service

import (
	"context"
	"sync"
)

// Scope ties fetches to the lifetime of the view that started them. Once
// closed, its context is cancelled and late results are dropped.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scope) Context() context.Context {
	return s.ctx
}

func (s *Scope) Alive() bool {
	return s.ctx.Err() == nil
}

func (s *Scope) Close() {
	s.once.Do(s.cancel)
}

// Deliver applies fn to v only while the scope is alive and reports whether
// it did.
func Deliver[T any](s *Scope, v T, fn func(T)) bool {
	if !s.Alive() {
		return false
	}
	fn(v)
	return true
}
