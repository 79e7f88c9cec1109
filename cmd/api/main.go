package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/crewpay/payroll-ledger/internal/config"
	"github.com/crewpay/payroll-ledger/internal/deduction"
	"github.com/crewpay/payroll-ledger/internal/handlers"
	"github.com/crewpay/payroll-ledger/internal/repository"
	"github.com/crewpay/payroll-ledger/internal/services"
	xhttp "github.com/crewpay/payroll-ledger/pkg/http"
	"github.com/crewpay/payroll-ledger/pkg/logger"
	"github.com/crewpay/payroll-ledger/pkg/pg"
	"github.com/crewpay/payroll-ledger/pkg/prom"
	"github.com/crewpay/payroll-ledger/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	if config.Get().AppDebugMetricsAddr != "" {
		err = prom.Create(config.Get().AppDebugMetricsAddr, config.Get().AppEnv, config.Get().PromNamespace)
		if err != nil {
			logger.Error("failed creating prometheus metrics", "error", err)
		}
		go prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
	}

	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)

	// services
	ledgerService := services.NewLedgerService(accountRepo, transactionRepo)
	employeeService := services.NewEmployeeService(employeeRepo)
	timesheetService := services.NewTimesheetService(timesheetRepo, employeeRepo)
	healthService := services.NewHealthService(db)

	// monthly deduction pass
	pass := deduction.NewPass(accountRepo, transactionRepo, config.Get().DeductionWorkers)
	runner := deduction.NewRunner(pass, redisAdap, config.Get().DeductionInterval)
	if config.Get().DeductionEnabled {
		runner.Start()
		defer runner.Stop()
	}

	// v1 handlers
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, runner)
	employeeHandler := handlers.NewEmployeeHandler(employeeService)
	timesheetHandler := handlers.NewTimesheetHandler(timesheetService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterLedgerRoutes(g, ledgerHandler)
	handlers.RegisterEmployeeRoutes(g, employeeHandler)
	handlers.RegisterTimesheetRoutes(g, timesheetHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	// Create new server
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
