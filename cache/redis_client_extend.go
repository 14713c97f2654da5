package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/magic-lib/go-plat-startupcfg/startupcfg"
	"github.com/magic-lib/go-plat-utils/conv"
	"github.com/magic-lib/go-plat-utils/goroutines"
)

var (
	onceError sync.Once

	defaultPingTimeout = 3 * time.Second

	poolMaxSize = 100
	poolMinSize = 10

	poolMinIdleConns = 30            //连接池中最小的空闲连接数，可以通过此属性提供更快的连接分配，默认为0
	poolMaxConnAge   = 3 * time.Hour //连接的最大寿命，达到后归还连接池，避免长时间占用资源
	poolPoolTimeout  time.Duration = 0
	poolIdleTimeout  = 5 * time.Minute //空闲连接的最长存活时间，超过后关闭
	poolIdleCheckFrequency = time.Minute
)

func checkConnection(conn *redis.Client, pingTimeout time.Duration) error {
	if conn == nil {
		return fmt.Errorf("conn is nil")
	}

	timeout := defaultPingTimeout
	if pingTimeout > 0 {
		timeout = pingTimeout
	}

	newCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return conn.Ping(newCtx).Err()
}

func getRedisFromCfg(redisCfg *startupcfg.RedisConfig) (*redis.Client, error) {
	dialOpt := getRedisOption(redisCfg, getPoolSize())
	newClient := redis.NewClient(dialOpt)
	err := checkConnection(newClient, redisCfg.PingTimeout)
	if err != nil {
		_ = newClient.Close()
		return nil, err
	}
	return newClient, nil
}

func getRedisOption(redisCfg startupcfg.Database, poolSize int) *redis.Options {
	dialOpt := &redis.Options{}
	if dataInt, ok := conv.Int64(redisCfg.DatabaseName()); ok {
		dialOpt.DB = int(dataInt)
	}
	dialOpt.Username = redisCfg.User()
	dialOpt.Password = redisCfg.Password()

	if oneTls, ok := redisCfg.Extend("tls"); ok {
		tlsBool, ok := conv.Bool(oneTls)
		if ok && tlsBool {
			tlsConfig := &tls.Config{
				InsecureSkipVerify: true,
			}
			if tlsConfig.ServerName == "" {
				tlsConfig.ServerName = redisCfg.ServerAddress()
			}
			dialOpt.TLSConfig = tlsConfig
		}
	}

	dialOpt.Addr = redisCfg.ServerAddress()
	dialOpt.Network = redisCfg.ProtocolName()

	{ // 连接池的配置
		dialOpt.PoolFIFO = true
		dialOpt.PoolSize = poolSize
		dialOpt.MinIdleConns = poolMinIdleConns
		dialOpt.MaxConnAge = poolMaxConnAge
		dialOpt.PoolTimeout = poolPoolTimeout
		dialOpt.IdleTimeout = poolIdleTimeout
		dialOpt.IdleCheckFrequency = poolIdleCheckFrequency
	}
	return dialOpt
}

func getPoolSize() int {
	poolSize := runtime.GOMAXPROCS(0)
	if poolSize < poolMinSize {
		poolSize = poolMinSize
	}
	if poolSize > poolMaxSize {
		poolSize = poolMaxSize
	}
	return poolSize
}

// 取得默认的ctx
func getContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	ctxPtr, _, _ := goroutines.GetContext()
	if ctxPtr == nil {
		ctxOne := context.Background()
		ctxPtr = &ctxOne
	}
	return *ctxPtr
}
