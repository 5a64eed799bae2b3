package cache

import "context"

// Store persists the single cached document
// ⭐ SSOT: 캐시 백엔드 인터페이스 (bolt, redis, postgres, memory)
type Store interface {
	Get(ctx context.Context) (data []byte, found bool, err error)
	Put(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
	Close() error
}
