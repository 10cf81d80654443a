package rung

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"gorm.io/gorm"
)

// schemaLock serializes plan execution against one target schema. Acquire
// never blocks: if another run holds the lock the caller gets
// ErrLockContention and decides whether to retry.
type schemaLock interface {
	Acquire(ctx context.Context, db *gorm.DB) error
	Release(ctx context.Context, db *gorm.DB) error
}

const lockName = "rung_migrations"

func lockFor(dialectName string) schemaLock {
	switch dialectName {
	case "postgres":
		return &postgresLock{key: lockKey()}
	case "mysql":
		return &mysqlLock{name: lockName}
	default:
		// sqlite has a single writer per file anyway; an in-process lock
		// covers concurrent managers sharing one connection.
		return &processLock{}
	}
}

func lockKey() int64 {
	h := fnv.New32a()
	// fnv.Write never returns an error
	_, _ = h.Write([]byte(lockName))
	return int64(h.Sum32())
}

type postgresLock struct {
	key int64
}

func (l *postgresLock) Acquire(ctx context.Context, db *gorm.DB) error {
	var acquired bool
	err := db.WithContext(ctx).Raw("SELECT pg_try_advisory_lock(?)", l.key).Scan(&acquired).Error
	if err != nil {
		return fmt.Errorf("acquiring advisory lock: %w", err)
	}
	if !acquired {
		return ErrLockContention
	}
	return nil
}

func (l *postgresLock) Release(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec("SELECT pg_advisory_unlock(?)", l.key).Error
}

type mysqlLock struct {
	name string
}

func (l *mysqlLock) Acquire(ctx context.Context, db *gorm.DB) error {
	var acquired int
	err := db.WithContext(ctx).Raw("SELECT GET_LOCK(?, 0)", l.name).Scan(&acquired).Error
	if err != nil {
		return fmt.Errorf("acquiring named lock: %w", err)
	}
	if acquired != 1 {
		return ErrLockContention
	}
	return nil
}

func (l *mysqlLock) Release(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec("SELECT RELEASE_LOCK(?)", l.name).Error
}

type processLock struct {
	mutex sync.Mutex
}

func (l *processLock) Acquire(ctx context.Context, db *gorm.DB) error {
	if !l.mutex.TryLock() {
		return ErrLockContention
	}
	return nil
}

func (l *processLock) Release(ctx context.Context, db *gorm.DB) error {
	l.mutex.Unlock()
	return nil
}
