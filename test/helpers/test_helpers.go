package helpers

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/crewpay/payroll-ledger/internal/repository"
	"github.com/crewpay/payroll-ledger/pkg/pg"
	"github.com/crewpay/payroll-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.EmployeeEntity{},
		&repository.TradeEntity{},
		&repository.AdvanceAccountEntity{},
		&repository.AdvanceTransactionEntity{},
		&repository.TimesheetEntity{},
		&repository.TimesheetEntryEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestEmployee(t *testing.T, db *pg.DB, empNo, name string, basePay int64) {
	t.Helper()
	ctx := context.Background()

	err := db.Write(ctx).Create(&repository.EmployeeEntity{
		EmpNo:   empNo,
		Name:    name,
		BasePay: decimal.NewFromInt(basePay),
	}).Error
	require.NoError(t, err)
}

func CreateTestTrade(t *testing.T, db *pg.DB, name string) int64 {
	t.Helper()
	ctx := context.Background()

	trade := &repository.TradeEntity{TradeName: name}
	err := db.Write(ctx).Create(trade).Error
	require.NoError(t, err)
	return trade.ID
}
