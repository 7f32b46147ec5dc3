package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartLimiter limita cuántas corridas puede iniciar un mismo cliente por ventana.
type StartLimiter interface {
	Allow(key string) bool
}

// El contador vive en una clave por ventana fija y expira cuando la ventana termina.
const redisStartCountScript = `
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`

const startKeyPrefix = "assess:start:"

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisStartLimiter struct {
	logger   *zap.Logger
	client   redisEvaler
	window   time.Duration
	max      int
	now      func() time.Time
	fallback StartLimiter
}

// NewRedisStartLimiter comparte el límite entre réplicas. Si redis falla se
// aplica una ventana local del proceso con los mismos parámetros.
func NewRedisStartLimiter(logger *zap.Logger, client *redis.Client, window time.Duration, max int) StartLimiter {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window < time.Second {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisStartLimiter{
		logger:   logger,
		client:   client,
		window:   window,
		max:      max,
		now:      time.Now,
		fallback: NewMemoryStartLimiter(window, max),
	}
}

func startKey(bucket int64, client string) string {
	return startKeyPrefix + strconv.FormatInt(bucket, 10) + ":" + client
}

func (l *redisStartLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	client := normalizeClientKey(key)
	if client == "" {
		return false
	}

	windowMs := l.window.Milliseconds()
	nowMs := l.now().UnixMilli()
	bucket := nowMs / windowMs
	remainingMs := windowMs - nowMs%windowMs

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	count, err := l.client.Eval(ctx, redisStartCountScript, []string{startKey(bucket, client)}, remainingMs).Int64()
	if err != nil {
		l.logger.Warn("start limiter redis failed, using local window", zap.String("client", client), zap.Error(err))
		if l.fallback == nil {
			return true
		}
		return l.fallback.Allow(client)
	}
	return count <= int64(l.max)
}

func normalizeClientKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

type memoryWindow struct {
	count   int
	resetAt time.Time
}

type memoryStartLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	now     func() time.Time
	windows map[string]memoryWindow
}

// NewMemoryStartLimiter es la versión de ventana fija para un solo proceso.
func NewMemoryStartLimiter(window time.Duration, max int) StartLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &memoryStartLimiter{
		window:  window,
		max:     max,
		now:     time.Now,
		windows: make(map[string]memoryWindow),
	}
}

func (l *memoryStartLimiter) Allow(key string) bool {
	key = normalizeClientKey(key)
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = memoryWindow{resetAt: now.Add(l.window)}
	}
	w.count++
	l.windows[key] = w
	return w.count <= l.max
}
