package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"dataroom-chatbot/internal/blobstore"
	"dataroom-chatbot/internal/config"
	"dataroom-chatbot/internal/index"
	"dataroom-chatbot/internal/ingest"
	"dataroom-chatbot/internal/model"
	mysqlClient "dataroom-chatbot/internal/platform/mysql"
	rabbitmqClient "dataroom-chatbot/internal/platform/rabbitmq"
	redisClient "dataroom-chatbot/internal/platform/redis"
	"dataroom-chatbot/internal/repository"
	"dataroom-chatbot/internal/worker"
)

type App struct {
	Config        *config.Config
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	MessageWorker *worker.MessagePersistWorker
	IndexManager  *index.Manager
	DriveSource   ingest.Source

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.User{}, &model.Session{}, &model.Message{}, &model.Document{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	messageRepo := repository.NewMessageRepository(mysqlDB)
	messageWorker := worker.NewMessagePersistWorker(mqConn, messageRepo, cfg.RabbitMQ.MessagePersistQueue)
	if err := messageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start message worker failed: %w", err)
	}

	store, err := blobstore.NewLocalStore(cfg.Index.Dir)
	if err != nil {
		return nil, fmt.Errorf("open index store failed: %w", err)
	}
	indexManager := index.NewManager(store, cfg.LLM.EmbeddingDimension)
	if err := indexManager.LoadCurrent(ctx); err != nil {
		if errors.Is(err, index.ErrIndexNotFound) {
			log.Printf("no persisted index found, dataroom starts empty")
		} else {
			return nil, fmt.Errorf("load persisted index failed: %w", err)
		}
	}

	// The server stays useful without Drive credentials: questions still run
	// against a previously persisted index, only updates are unavailable.
	var driveSource ingest.Source
	if cfg.Drive.ClientID != "" && cfg.Drive.ClientSecret != "" {
		src, err := ingest.NewDriveSource(ctx, cfg.Drive)
		if err != nil {
			log.Printf("drive source unavailable: %v", err)
		} else {
			driveSource = src
		}
	} else {
		log.Printf("drive credentials not configured, dataroom updates disabled")
	}

	return &App{
		Config:        cfg,
		MySQL:         mysqlDB,
		Redis:         redisCli,
		MQConn:        mqConn,
		MessageWorker: messageWorker,
		IndexManager:  indexManager,
		DriveSource:   driveSource,
		StartedAt:     time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
