package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	authController "github.com/zennieheo/hackathon2024-BE/controllers/auth"
	"github.com/zennieheo/hackathon2024-BE/controllers/intake"
	"github.com/zennieheo/hackathon2024-BE/database"
	"github.com/zennieheo/hackathon2024-BE/enums"
	"github.com/zennieheo/hackathon2024-BE/middlewares"
	"github.com/zennieheo/hackathon2024-BE/models"
	"github.com/zennieheo/hackathon2024-BE/router"
	"github.com/zennieheo/hackathon2024-BE/services/auth"
	"github.com/zennieheo/hackathon2024-BE/services/ledger"
	logLib "github.com/zennieheo/hackathon2024-BE/services/log"
	"github.com/zennieheo/hackathon2024-BE/services/rabbitmq"
	"github.com/zennieheo/hackathon2024-BE/services/report"
	"github.com/zennieheo/hackathon2024-BE/services/trackLog"
	"github.com/zennieheo/hackathon2024-BE/structs"
	"github.com/zennieheo/hackathon2024-BE/utils"
	"golang.org/x/sync/errgroup"
)

type stores struct {
	entries   ledger.Store
	snapshots report.SnapshotStore
	users     auth.UserStore
}

func main() {
	var envService utils.EnvService
	if err := envService.InitEnv(); err != nil {
		log.Fatalf("init env: %s", err)
	}
	config := utils.EnvConfig
	trackLog.LogTrackInit()

	var logService logLib.LogService
	logger := logService.LoggerInit("main")

	s, err := openStores(config)
	if err != nil {
		logger.Fatalf("open stores: %s", err)
	}
	defer database.Close()
	insertActivityLog(s.snapshots, enums.ActivityWorkerInit, "intake-ledger start")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	intakeLedger := ledger.New(s.entries, ledger.WithLocation(utils.Location()))
	reportService := report.NewReportService(s.entries, s.snapshots,
		report.WithConcurrency(config.ConcurrentAmount),
		report.WithCallback(config.Server.AppAPI, nil),
	)

	var conn *rabbitmq.Connection
	var publisher intake.Publisher
	if config.RabbitMQ.Enable == 1 {
		conn, err = intakeQueue(config.RabbitMQ.Domain)
		if err != nil {
			logger.Fatalf("rabbitmq: %s", err)
		}
		defer conn.Close()
		publisher = conn
	}

	authService := auth.NewService(s.users, config.Auth.SigningKey, auth.WithTokenTTL(config.Auth.AccessTTL, config.Auth.RefreshTTL))
	route, err := router.Router(router.Handlers{
		Intake:         intake.NewController(intakeLedger, s.snapshots, reportService, publisher),
		Auth:           authController.NewController(authService),
		Authenticator:  authService,
		Limiter:        middlewares.NewRateLimiter(config.Throttle.AnonPerDay, config.Throttle.UserPerDay),
		AllowedOrigins: config.Cors.AllowedOrigins,
		TrustedProxies: config.Router.TrustedProxies,
		AccessLog:      logService.LoggerInit("access"),
	})
	if err != nil {
		logger.Fatalf("router: %s", err)
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Router.Port),
		Handler:           route,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{"task": "main", "port": config.Router.Port}).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if conn != nil {
		g.Go(func() error {
			return consume(gctx, conn, reportService)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithFields(logrus.Fields{"task": "main"}).Errorf("worker shutdown: %s", err)
		return
	}
	logger.WithFields(logrus.Fields{"task": "main"}).Info("worker shutdown")
}

func openStores(config *structs.EnvironmentModel) (stores, error) {
	if config.Database.Client == enums.DatabaseMemory {
		return stores{
			entries:   ledger.NewMemoryStore(),
			snapshots: report.NewMemorySnapshotStore(),
			users:     auth.NewMemoryUserStore(),
		}, nil
	}

	db, err := database.InitDatabasePool(config)
	if err != nil {
		return stores{}, err
	}
	return stores{
		entries:   ledger.NewGormStore(db),
		snapshots: report.NewGormSnapshotStore(db),
		users:     auth.NewGormUserStore(db),
	}, nil
}

func intakeQueue(domain string) (*rabbitmq.Connection, error) {
	conn := rabbitmq.NewConnection(enums.QueueConnName, domain, []string{enums.ReportQueue})
	if err := conn.Connect(); err != nil {
		return nil, err
	}
	if err := conn.BindQueue(); err != nil {
		return nil, err
	}
	return conn, nil
}

// consume blocks until ctx is done, handing every delivery to the report service.
func consume(ctx context.Context, conn *rabbitmq.Connection, reportService *report.ReportService) error {
	deliveries, err := conn.Consume()
	if err != nil {
		return err
	}
	handler := func(ctx context.Context, q string, deliveries <-chan amqp.Delivery) {
		for d := range deliveries {
			trackLog.Info(fmt.Sprintf("queue[%s] received: %s", q, string(d.Body)))
			if err := reportService.Handle(ctx, q, d.Body); err != nil {
				trackLog.Error(fmt.Sprintf("queue[%s] job failed: %s", q, err))
			}
		}
	}
	for q, d := range deliveries {
		go conn.HandleConsumedDeliveries(ctx, q, d, handler)
	}
	trackLog.Info(fmt.Sprintf("[%s] [%s] waiting for messages", enums.QueueConnName, enums.ReportQueue))
	<-ctx.Done()
	return nil
}

// insertActivityLog records process lifecycle events next to the job logs.
func insertActivityLog(snapshots report.SnapshotStore, name, description string) {
	now := time.Now().In(utils.Location())
	err := snapshots.InsertActivityLog(context.Background(), models.ActivityLog{
		LogName:     name,
		Description: description,
		Properties:  "{}",
		CreatedAt:   &now,
		UpdatedAt:   &now,
	})
	if err != nil {
		trackLog.Error(fmt.Sprintf("insert activity log: %s", err))
	}
}
