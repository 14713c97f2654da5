package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/magic-lib/go-plat-utils/conv"
	"github.com/magic-lib/go-plat-utils/logs"
	cmap "github.com/orcaman/concurrent-map/v2"

	_ "github.com/go-sql-driver/mysql"
)

var (
	onlyOneCleanMap      = cmap.New[sync.Once]()
	checkInterval        = 10 * time.Minute
	defaultMaxExpireTime = 24 * 90 * time.Hour //避免无限期占用存储空间
)

type MySQLCacheConfig struct {
	DSN       string
	SqlDB     *sql.DB
	TableName string `json:"table_name"`
	Namespace string `json:"namespace"`
}

// mySQLCache 基于MySQL实现的缓存
type mySQLCache[V any] struct {
	dsn string
	db  *sql.DB
	// 缓存表名，可在初始化时指定
	tableName string
	namespace string
	ownsDB    bool //是否是自己创建的连接，Close时只关闭自己创建的
	stopClean chan struct{}
	closeOnce sync.Once
}

// NewMySQLCache 创建MySQL缓存实例
func NewMySQLCache[V any](cfg *MySQLCacheConfig) (LocalCache[V], error) {
	ownsDB := false
	if cfg.SqlDB == nil {
		if cfg.DSN != "" {
			sqlDB, err := sql.Open("mysql", cfg.DSN)
			if err != nil {
				return nil, fmt.Errorf("初始化数据库连接失败: %v", err)
			}
			cfg.SqlDB = sqlDB
			ownsDB = true
		}
	}

	if cfg.SqlDB == nil || cfg.TableName == "" {
		return nil, errors.New("请检查配置参数")
	}

	// 确保表存在，不存在则创建
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			namespace VARCHAR(50) NOT NULL,
			cache_key VARCHAR(255) NOT NULL,
			cache_value JSON NOT NULL,
			expire_time DATETIME DEFAULT NULL,
			create_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			update_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (namespace,cache_key) USING BTREE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_bin;
	`, cfg.TableName)

	_, err := cfg.SqlDB.Exec(createTableSQL)
	if err != nil {
		return nil, fmt.Errorf("创建缓存表失败: %v", err)
	}

	mysqlCache := &mySQLCache[V]{
		db:        cfg.SqlDB,
		tableName: cfg.TableName,
		namespace: cfg.Namespace,
		ownsDB:    ownsDB,
		stopClean: make(chan struct{}),
	}

	onlyKey := fmt.Sprintf("%s/%s", cfg.DSN, cfg.TableName)
	if !onlyOneCleanMap.Has(onlyKey) {
		onlyOneCleanMap.Set(onlyKey, sync.Once{})
	}
	if onlyOneCleanData, ok := onlyOneCleanMap.Get(onlyKey); ok {
		// 每个表只用执行一次即可
		onlyOneCleanData.Do(func() {
			mysqlCache.startCleanupJob(checkInterval)
		})
	}
	return mysqlCache, nil
}

// Get 从缓存中获取值，查询时自动过滤已过期的键
func (c *mySQLCache[V]) Get(ctx context.Context, key string) (V, error) {
	var (
		valueStr    string
		expireBytes []byte
	)
	if ctx == nil {
		ctx = context.Background()
	}

	querySQL := fmt.Sprintf(`SELECT cache_value, expire_time FROM %s WHERE namespace=? AND cache_key = ? AND (expire_time IS NULL OR expire_time > NOW()) LIMIT 1`, c.tableName)
	err := c.db.QueryRowContext(ctx, querySQL, c.namespace, key).Scan(&valueStr, &expireBytes)
	if err != nil {
		var zero V
		if errors.Is(err, sql.ErrNoRows) {
			// 键不存在或已过期
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("查询缓存失败: %v", err)
	}
	// 反序列化JSON为指定类型
	return strToVal[V](valueStr)
}

// Set 向缓存中设置值，支持过期时间
func (c *mySQLCache[V]) Set(ctx context.Context, key string, val V, timeout time.Duration) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	valueStr := conv.String(val)
	if timeout <= 0 {
		timeout = defaultMaxExpireTime
	}
	// 计算过期时间
	expireAt := time.Now().Add(timeout)

	// 插入或更新缓存（UPSERT操作）
	insertSQL := fmt.Sprintf(`INSERT INTO %s (namespace, cache_key, cache_value, expire_time) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE cache_value = VALUES(cache_value), expire_time = VALUES(expire_time), update_time = CURRENT_TIMESTAMP`, c.tableName)

	var args []interface{}
	args = append(args, c.namespace, key, valueStr, expireAt)

	_, err := c.db.ExecContext(ctx, insertSQL, args...)
	if err != nil {
		return false, fmt.Errorf("设置缓存失败: %v", err)
	}

	return true, nil
}

// Del 从缓存中删除键，只删活的行，已过期的行交给清理任务
func (c *mySQLCache[V]) Del(ctx context.Context, key string) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE namespace=? AND cache_key = ? AND (expire_time IS NULL OR expire_time > NOW())", c.tableName)
	result, err := c.db.ExecContext(ctx, deleteSQL, c.namespace, key)
	if err != nil {
		return false, fmt.Errorf("删除缓存失败: %v", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	// 返回是否实际删除了活的数据
	return rowsAffected > 0, nil
}

// Exists 判断key是否存在且未过期
func (c *mySQLCache[V]) Exists(ctx context.Context, key string) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	querySQL := fmt.Sprintf(`SELECT 1 FROM %s WHERE namespace=? AND cache_key = ? AND (expire_time IS NULL OR expire_time > NOW()) LIMIT 1`, c.tableName)
	var one int
	err := c.db.QueryRowContext(ctx, querySQL, c.namespace, key).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("查询缓存失败: %v", err)
	}
	return true, nil
}

// Close 停止清理任务，自己创建的连接才关闭
func (c *mySQLCache[V]) Close() error {
	var retErr error
	c.closeOnce.Do(func() {
		close(c.stopClean)
		if c.ownsDB {
			retErr = c.db.Close()
		}
	})
	return retErr
}

// startCleanupJob 添加定时清理过期键的方法
func (c *mySQLCache[V]) startCleanupJob(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-c.stopClean:
				return
			case <-ticker.C:
				cleanSQL := fmt.Sprintf("DELETE FROM %s WHERE expire_time IS NOT NULL AND expire_time < NOW()", c.tableName)
				_, err := c.db.Exec(cleanSQL)
				if err != nil {
					logs.DefaultLogger().Error("清理过期缓存失败:", err.Error())
				}
			}
		}
	}()
}
