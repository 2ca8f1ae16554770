package storage

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gomodule/redigo/redis"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// RedisChannel carries change notifications between every process that
// shares the Redis database.
const RedisChannel = "houseplants:kv:changes"

const redisKeyPrefix = "houseplants:kv:"

// Redis stores values as plain Redis strings. Writes publish a Change on
// RedisChannel and a background subscriber relays every published change,
// local or remote, to this store's listeners.
type Redis struct {
	notifier
	pool   *redis.Pool
	quota  int
	psc    redis.PubSubConn
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewRedis connects to the Redis server at rawURL (redis://host:port/db).
func NewRedis(rawURL string, quota int) (*Redis, error) {
	pool := &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 4 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(rawURL)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	conn := pool.Get()
	if _, err := conn.Do("PING"); err != nil {
		conn.Close()
		pool.Close()
		return nil, serr.Wrap(err, "failed to reach redis")
	}
	conn.Close()

	sub, err := redis.DialURL(rawURL)
	if err != nil {
		pool.Close()
		return nil, serr.Wrap(err, "failed to open redis subscriber connection")
	}
	psc := redis.PubSubConn{Conn: sub}
	if err := psc.Subscribe(RedisChannel); err != nil {
		sub.Close()
		pool.Close()
		return nil, serr.Wrap(err, "failed to subscribe to change channel")
	}

	r := &Redis{
		pool:  pool,
		quota: quota,
		psc:   psc,
		done:  make(chan struct{}),
	}
	go r.receiveLoop()
	return r, nil
}

func (r *Redis) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Redis) Get(key string) ([]byte, bool, error) {
	if r.isClosed() {
		return nil, false, ErrClosed
	}
	conn := r.pool.Get()
	defer conn.Close()

	value, err := redis.Bytes(conn.Do("GET", redisKeyPrefix+key))
	if err == redis.ErrNil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, serr.Wrap(err, "failed to read key from redis")
	}
	return value, true, nil
}

func (r *Redis) Set(key string, value []byte) error {
	if r.isClosed() {
		return ErrClosed
	}
	if err := checkQuota(r.quota, key, value); err != nil {
		return err
	}
	conn := r.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("SET", redisKeyPrefix+key, value); err != nil {
		return serr.Wrap(err, "failed to write key to redis")
	}
	r.announce(conn, Change{Key: key, Kind: ChangeSet})
	return nil
}

func (r *Redis) Remove(key string) error {
	if r.isClosed() {
		return ErrClosed
	}
	conn := r.pool.Get()
	defer conn.Close()

	n, err := redis.Int(conn.Do("DEL", redisKeyPrefix+key))
	if err != nil {
		return serr.Wrap(err, "failed to delete key from redis")
	}
	if n > 0 {
		r.announce(conn, Change{Key: key, Kind: ChangeRemove})
	}
	return nil
}

// announce publishes a change. A failed publish only costs other
// processes a refresh, so it is logged and not returned.
func (r *Redis) announce(conn redis.Conn, c Change) {
	payload, err := json.Marshal(c)
	if err != nil {
		logger.LogErr(err, "failed to encode change notification")
		return
	}
	if _, err := conn.Do("PUBLISH", RedisChannel, payload); err != nil {
		logger.LogErr(err, "failed to publish change notification", "key", c.Key)
	}
}

func (r *Redis) receiveLoop() {
	for {
		switch v := r.psc.Receive().(type) {
		case redis.Message:
			var c Change
			if err := json.Unmarshal(v.Data, &c); err != nil {
				logger.LogErr(err, "ignoring malformed change notification")
				continue
			}
			r.publish(c)

		case redis.Subscription:
			logger.Debug("redis subscription update", "kind", v.Kind, "channel", v.Channel)

		case error:
			select {
			case <-r.done:
				return
			default:
			}
			logger.LogErr(v, "redis change subscription failed")
			return
		}
	}
}

func (r *Redis) Subscribe(fn func(Change)) func() {
	return r.subscribe(fn)
}

func (r *Redis) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	r.reset()
	_ = r.psc.Unsubscribe()
	if err := r.psc.Close(); err != nil {
		logger.LogErr(err, "failed to close redis subscriber")
	}
	return r.pool.Close()
}
