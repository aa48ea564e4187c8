package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/debtflow-backend/internal/adapter/grpc"
	"github.com/simaogato/debtflow-backend/internal/adapter/repository/memory"
	"github.com/simaogato/debtflow-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/debtflow-backend/internal/config"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/simaogato/debtflow-backend/internal/usecase/analytics"
	"github.com/simaogato/debtflow-backend/internal/usecase/balance"
	"github.com/simaogato/debtflow-backend/internal/usecase/correction"
	"github.com/simaogato/debtflow-backend/internal/usecase/facility"
	"github.com/simaogato/debtflow-backend/internal/usecase/ledger"
	"github.com/simaogato/debtflow-backend/internal/usecase/obligation"
	"github.com/simaogato/debtflow-backend/internal/usecase/recommendation"
	"github.com/simaogato/debtflow-backend/internal/usecase/repayment"
	"github.com/simaogato/debtflow-backend/internal/usecase/seeder"
)

// repositories groups one storage backend's implementations
type repositories struct {
	facilities  domain.FacilityRepository
	obligations domain.ObligationRepository
	ledger      domain.LedgerRepository
	categories  domain.CategoryRepository
	tx          domain.Transactor
	close       func() error
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newRootCommand wires --config through viper so DEBTFLOW_CONFIG works as well
func newRootCommand() *cobra.Command {
	v := config.New()
	cmd := &cobra.Command{
		Use:          "debtflow-server",
		Short:        "Debt allocation and repayment gRPC server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			run(cmd.Context(), cfg)
			return nil
		},
	}
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		log.Fatalf("Failed to bind flags: %v", err)
	}
	return cmd
}

func run(ctx context.Context, cfg *config.Config) {
	// 1. Setup Storage
	repos, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Driver, err)
	}
	defer repos.close()

	// 2. Initialize Services (Use Cases)
	balances := balance.NewCalculator(repos.facilities, repos.obligations)
	repaymentService := repayment.NewRepaymentService(repos.facilities, repos.obligations, repos.ledger, repos.categories, repos.tx)
	correctionService := correction.NewCorrectionService(repos.facilities, repos.obligations, balances, repaymentService, repos.tx)
	recommendationService := recommendation.NewRecommendationService(repos.facilities, balances)
	analyticsService := analytics.NewAnalyticsService(repos.facilities, repos.ledger, balances)
	facilityService := facility.NewFacilityService(repos.facilities)
	obligationService := obligation.NewObligationService(repos.facilities, repos.obligations, repos.tx)
	ledgerService := ledger.NewLedgerService(repos.ledger, repos.obligations, repos.tx)

	// Seed the well-known categories
	if cfg.Seed.Enabled {
		categorySeeder := seeder.NewCategorySeeder(repos.categories)
		if err := categorySeeder.Seed(ctx); err != nil {
			log.Fatalf("Failed to seed categories: %v", err)
		}
		log.Println("Categories seeded successfully")
	}

	// 3. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(),
			grpcadapter.AuthInterceptor(cfg.Auth.Token),
			grpcadapter.OwnerInterceptor(),
		),
	)

	grpcAdapter := grpcadapter.NewServer(
		balances,
		repaymentService,
		correctionService,
		recommendationService,
		analyticsService,
		facilityService,
		obligationService,
		ledgerService,
	)
	grpcadapter.RegisterDebtFlowServiceServer(grpcServer, grpcAdapter)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.Port)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.Server.Port, err)
	}

	// Start server in a goroutine
	go func() {
		log.Printf("gRPC server listening on %s (storage: %s)", cfg.Server.Port, cfg.Storage.Driver)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer)
}

// openStorage builds the repositories for the configured driver
func openStorage(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		store := memory.NewStore()
		return &repositories{
			facilities:  store.Facilities(),
			obligations: store.Obligations(),
			ledger:      store.Ledger(),
			categories:  store.Categories(),
			tx:          store,
			close:       func() error { return nil },
		}, nil
	}

	// Give a freshly started Postgres container a moment (simple retry)
	var db *postgres.DB
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		db, err = postgres.NewDB(cfg.Database.ConnectionString())
		if err == nil {
			break
		}
		log.Printf("Database not ready (attempt %d): %v", attempt+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &repositories{
		facilities:  postgres.NewFacilityRepository(db),
		obligations: postgres.NewObligationRepository(db),
		ledger:      postgres.NewLedgerRepository(db),
		categories:  postgres.NewCategoryRepository(db),
		tx:          db,
		close:       db.Close,
	}, nil
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")
}
