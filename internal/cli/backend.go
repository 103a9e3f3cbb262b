package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"zoo-quiz-service/internal/app"
	"zoo-quiz-service/internal/catalog"
	"zoo-quiz-service/internal/config"
	"zoo-quiz-service/internal/infra/memory"
	pgloader "zoo-quiz-service/internal/infra/postgres"
	"zoo-quiz-service/internal/infra/rabbitmq"
	rediscache "zoo-quiz-service/internal/infra/redis"
	"zoo-quiz-service/internal/infra/sqlstore"
	"zoo-quiz-service/internal/infra/sqlstore/migrations"
)

// backend is the set of adapters chosen from the config.
type backend struct {
	store  app.Store
	bank   app.QuestionBank
	runs   app.RunRegistry
	events app.EventPublisher
	relay  *rediscache.BoardRelay
	pings  []func(context.Context) error
	closer []func() error
}

func (b *backend) ping(ctx context.Context) error {
	for _, p := range b.pings {
		if err := p(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closer) - 1; i >= 0; i-- {
		errs = append(errs, b.closer[i]())
	}
	return errors.Join(errs...)
}

// openDB returns a bun handle for Postgres or SQLite, or nil when neither is configured.
func openDB(cfg config.Config) (*bun.DB, error) {
	switch {
	case cfg.Postgres.URL != "":
		return sqlstore.OpenPostgres(cfg.Postgres.URL)
	case cfg.SQLite.Path != "":
		return sqlstore.OpenSQLite(cfg.SQLite.Path)
	default:
		return nil, nil
	}
}

// openBackend picks Postgres, SQLite or memory for storage, Redis or memory for the question
// cache and live runs, and RabbitMQ or an in-process log for progress events.
func openBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (*backend, error) {
	b := &backend{}
	ok := false
	defer func() {
		if !ok {
			_ = b.Close()
		}
	}()

	var loader memory.QuestionLoader
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if db == nil {
		store := memory.NewStore()
		res, err := catalog.NewImporter(store).ImportJSON(ctx, catalog.DefaultBank())
		if err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		log.Warn("no database configured, using in-memory store", "subjects", res.Subjects, "questions", res.Questions)
		b.store = store
		loader = store
	} else {
		b.closer = append(b.closer, db.Close)
		if _, err := migrations.Up(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		store := sqlstore.New(db)
		b.store = store
		b.pings = append(b.pings, store.Ping)
		loader = store
		log.Info("database ready", "dialect", db.Dialect().Name().String())
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect question loader: %w", err)
		}
		b.closer = append(b.closer, func() error { pool.Close(); return nil })
		loader = pgloader.NewQuestionLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	runTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closer = append(b.closer, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		b.pings = append(b.pings, func(ctx context.Context) error { return client.Ping(ctx).Err() })
		b.bank = rediscache.NewQuestionBank(client, loader, quizTTL)
		b.runs = rediscache.NewRunRegistry(client, runTTL)
		b.relay = rediscache.NewBoardRelay(client, log)
		log.Info("redis ready", "addr", cfg.Redis.Addr)
	} else {
		b.bank = memory.NewQuestionBank(loader, quizTTL)
		b.runs = memory.NewRunRegistry(runTTL)
	}

	if cfg.RabbitMQ.URL != "" {
		pub, err := rabbitmq.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return nil, err
		}
		b.closer = append(b.closer, pub.Close)
		b.events = pub
		log.Info("publishing progress events", "queue", cfg.RabbitMQ.Queue)
	} else {
		b.events = memory.NewEventLog(1000)
	}

	ok = true
	return b, nil
}

func rulesFrom(cfg config.Config) app.Rules {
	def := app.DefaultRules()
	return app.Rules{
		QuestionsPerSession: cfg.Quiz.QuestionsPerSession,
		DailyGameLimit:      cfg.Quiz.DailyGameLimit,
		ChallengePoolSize:   cfg.Quiz.ChallengePoolSize,
		RevealDelay:         config.TTLDuration(cfg.Quiz.RevealDelay, def.RevealDelay),
	}
}
