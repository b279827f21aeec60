package main

import (
	"context"
	"database/sql"
	"net/http"

	commentApp "github.com/davicafu/sociolab/internal/comment/application"
	commentDomain "github.com/davicafu/sociolab/internal/comment/domain"
	commentHttp "github.com/davicafu/sociolab/internal/comment/infra/inbound/http"
	commentPg "github.com/davicafu/sociolab/internal/comment/infra/outbound/db/postgre"
	commentSqlite "github.com/davicafu/sociolab/internal/comment/infra/outbound/db/sqlite"
	config "github.com/davicafu/sociolab/internal/config"
	postApp "github.com/davicafu/sociolab/internal/post/application"
	postDomain "github.com/davicafu/sociolab/internal/post/domain"
	postHttp "github.com/davicafu/sociolab/internal/post/infra/inbound/http"
	postPg "github.com/davicafu/sociolab/internal/post/infra/outbound/db/postgre"
	postSqlite "github.com/davicafu/sociolab/internal/post/infra/outbound/db/sqlite"
	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
	sharedPg "github.com/davicafu/sociolab/internal/shared/infra/db/postgres"
	sharedSqlite "github.com/davicafu/sociolab/internal/shared/infra/db/sqlite"
	infraEvents "github.com/davicafu/sociolab/internal/shared/infra/events"
	infraRelayer "github.com/davicafu/sociolab/internal/shared/infra/relayer"
	sharedBus "github.com/davicafu/sociolab/internal/shared/platform/bus"
	sharedCache "github.com/davicafu/sociolab/internal/shared/platform/cache"
	userApp "github.com/davicafu/sociolab/internal/user/application"
	userDomain "github.com/davicafu/sociolab/internal/user/domain"
	userHttp "github.com/davicafu/sociolab/internal/user/infra/inbound/http"
	userPg "github.com/davicafu/sociolab/internal/user/infra/outbound/db/postgre"
	userSqlite "github.com/davicafu/sociolab/internal/user/infra/outbound/db/sqlite"
	"github.com/davicafu/sociolab/pkg/logger"
	"github.com/davicafu/sociolab/pkg/utils"

	sharedEvents "github.com/davicafu/sociolab/internal/shared/events"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
	// _ "github.com/mattn/go-sqlite3" // requires gcc
	_ "modernc.org/sqlite"
)

// ---------------- Main ----------------
func main() {
	logger.Init()          // inicializa zap
	log := logger.Logger() // obtiene logger estructurado
	defer log.Sync()       // flush buffers al salir

	ctx := context.Background()
	cfg := config.LoadConfig()

	// ---------------- DB ----------------
	var db *sql.DB
	var err error

	var userRepo userDomain.UserRepository
	var postRepo postDomain.PostRepository
	var commentRepo commentDomain.CommentRepository
	var outboxRepo sharedDomain.OutboxRepository

	switch cfg.DBDriver {
	case "postgres":
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open Postgres", zap.Error(err))
		}
		if err := userPg.InitPostgres(db); err != nil {
			log.Fatal("failed to initialize Postgres schema (users)", zap.Error(err))
		}
		if err := postPg.InitPostgres(db); err != nil {
			log.Fatal("failed to initialize Postgres schema (posts)", zap.Error(err))
		}
		if err := commentPg.InitPostgres(db); err != nil {
			log.Fatal("failed to initialize Postgres schema (comments)", zap.Error(err))
		}
		if err := sharedPg.InitOutboxPostgres(db); err != nil {
			log.Fatal("failed to initialize Postgres schema (outbox)", zap.Error(err))
		}
		userRepo = userPg.NewUserRepoPostgres(db)
		postRepo = postPg.NewPostRepoPostgres(db)
		commentRepo = commentPg.NewCommentRepoPostgres(db)
		outboxRepo = sharedPg.NewOutboxRepoPostgres(db)
	default:
		db, err = sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		// Las FKs de SQLite están desactivadas por defecto; el borrado en
		// cascada de posts y comentarios depende de ellas.
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			log.Fatal("failed to enable SQLite foreign keys", zap.Error(err))
		}
		if err := userSqlite.InitSQLite(db); err != nil {
			log.Fatal("failed to initialize SQLite schema (users)", zap.Error(err))
		}
		if err := postSqlite.InitSQLite(db); err != nil {
			log.Fatal("failed to initialize SQLite schema (posts)", zap.Error(err))
		}
		if err := commentSqlite.InitSQLite(db); err != nil {
			log.Fatal("failed to initialize SQLite schema (comments)", zap.Error(err))
		}
		if err := sharedSqlite.InitOutboxSQLite(db); err != nil {
			log.Fatal("failed to initialize SQLite schema (outbox)", zap.Error(err))
		}
		userRepo = userSqlite.NewUserRepoSQLite(db)
		postRepo = postSqlite.NewPostRepoSQLite(db)
		commentRepo = commentSqlite.NewCommentRepoSQLite(db)
		outboxRepo = sharedSqlite.NewOutboxRepoSQLite(db)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		cacheInstance = sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	} else {
		cacheInstance = sharedCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// --------------- Servicios --------------
	userService := userApp.NewUserService(userRepo, cacheInstance, log)
	postService := postApp.NewPostService(postRepo, cacheInstance, log)
	commentService := commentApp.NewCommentService(commentRepo, cacheInstance, log)

	// ---------------- Events ---------------
	publishers := make(map[string]sharedBus.EventBus)

	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		for _, topic := range []string{userDomain.UserTopic, postDomain.PostTopic, commentDomain.CommentTopic} {
			writer := kafka.NewWriter(kafka.WriterConfig{
				Brokers: cfg.KafkaBrokers,
				Topic:   topic,
			})
			defer writer.Close()
			publishers[topic] = infraEvents.NewKafkaPublisher(writer, log)
		}
	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")

		for _, topic := range []string{userDomain.UserTopic, postDomain.PostTopic, commentDomain.CommentTopic} {
			publishers[topic] = infraEvents.NewInMemoryEventBus(topic)
		}
	}

	// ------------ Outbox Worker ------------
	// Se podría ejecutar externamente
	eventRegistry := make(map[string]sharedEvents.EventMetadata)

	// Merge de los registros de cada dominio
	for k, v := range userDomain.NewEventRegistry() {
		eventRegistry[k] = v
	}
	for k, v := range postDomain.NewEventRegistry() {
		eventRegistry[k] = v
	}
	for k, v := range commentDomain.NewEventRegistry() {
		eventRegistry[k] = v
	}

	outboxWorker := infraRelayer.NewOutboxWorker(outboxRepo, publishers, eventRegistry, cfg.OutboxPeriod, cfg.OutboxLimit, log)
	outboxWorker.Start(ctx)

	// ---------------- HTTP ----------------
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	}))

	userHandler := userHttp.NewUserHandler(userService)
	postHandler := postHttp.NewPostHandler(postService)
	commentHandler := commentHttp.NewCommentHandler(commentService)

	userHttp.RegisterUserRoutes(router, userHandler)
	postHttp.RegisterPostRoutes(router, postHandler)
	commentHttp.RegisterCommentRoutes(router, commentHandler)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.NoRoute(func(c *gin.Context) {
		utils.SendError(c, http.StatusNotFound, "PATH_NOT_FOUND: the requested URL does not exist")
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
	)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("failed to start server: %v", zap.Error(err))
	}
}
