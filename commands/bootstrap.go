package commands

import (
	"context"
	"fmt"

	"restaurant-service/config"
	"restaurant-service/database"
	"restaurant-service/logger"
	aws_pkg "restaurant-service/pkg/aws"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "restaurant-service"

// runtime holds what every command needs once configuration is resolved.
type runtime struct {
	cfg    *config.Config
	log    *zap.Logger
	awsCfg *sdkaws.Config
	db     *gorm.DB
}

// bootstrap loads config, sets up logging, resolves secrets and opens the
// database. AWS is only touched when a feature needs it.
func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if err := logger.Initialize(cfg.Env); err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: logger.Log}

	if cfg.CloudWatchEnabled || cfg.UseAWSSecrets || cfg.EventsBackend == "sns" {
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		rt.awsCfg = &awsCfg
	}

	if cfg.CloudWatchEnabled {
		cw, err := aws_pkg.NewCloudWatchLogsClient(ctx, *rt.awsCfg, cfg.CloudWatchGroup, serviceName)
		if err != nil {
			rt.log.Warn("CloudWatch Logs init failed (non-fatal)", zap.Error(err))
		} else if err := logger.InitializeWithWriter(cfg.Env, cw); err != nil {
			return nil, err
		}
		rt.log = logger.Log
	}

	if cfg.UseAWSSecrets {
		if err := cfg.ApplySecrets(ctx, aws_pkg.NewSecretsClient(*rt.awsCfg)); err != nil {
			return nil, fmt.Errorf("failed to load DB secret: %w", err)
		}
		rt.log.Info("Database credentials loaded from Secrets Manager", zap.String("secret", cfg.DBSecretName))
	}

	db, err := database.Connect(cfg.DSN(), rt.log)
	if err != nil {
		return nil, err
	}
	rt.db = db
	return rt, nil
}

func (rt *runtime) close() {
	if err := database.Close(rt.db); err != nil {
		rt.log.Error("Database close error", zap.Error(err))
	}
	logger.Sync()
}

// metrics returns a CloudWatch metrics client, or nil when AWS is not configured.
func (rt *runtime) metrics() *aws_pkg.MetricsClient {
	if rt.awsCfg == nil {
		return nil
	}
	return aws_pkg.NewMetricsClient(*rt.awsCfg, "Restaurant", rt.cfg.CloudWatchEnabled)
}
