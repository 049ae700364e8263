package main

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban-api/ai"
	"kanban-api/api"
	"kanban-api/board"
	"kanban-api/storage"
	"kanban-api/web"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := debugLevel(os.Getenv("DEBUG")); err != nil {
		log.Warnf("ignoring invalid DEBUG value %q", os.Getenv("DEBUG"))
	} else {
		log.SetLevel(lvl)
	}
	logger := log.New()
	logger.SetLevel(log.GetLevel())

	cardsTable := os.Getenv("CARDS_TABLE")
	if cardsTable == "" {
		cardsTable = "cards"
	}

	var store board.CardStore
	if connStr := os.Getenv("STORAGE_CONNECTION_STRING"); connStr == "" {
		logger.Warn("STORAGE_CONNECTION_STRING is not set, cards will not be persisted")
		store = storage.Disabled{}
	} else {
		s, err := storage.New(connStr, cardsTable)
		if err != nil {
			logger.Fatalf("storage: %v", err)
		}
		store = s
		if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
			ttl := time.Minute
			if v := os.Getenv("CARDS_CACHE_TTL"); v != "" {
				d, err := time.ParseDuration(v)
				if err != nil || d <= 0 {
					logger.Fatalf("invalid CARDS_CACHE_TTL: %v", err)
				}
				ttl = d
			}
			store = storage.NewCache(s, redis.NewClient(redisOptions(redisConn)), ttl)
		}
	}

	controller := board.New(store, logger)

	// Warm the board before serving so new cards slot in after existing ones.
	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	_ = controller.Load(loadCtx) // Load logs its own warning on failure.
	cancel()

	// A missing AI key is a runtime 500 on the AI route, not a startup error.
	generator := ai.New(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL"), logger)

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	api.Register(e, controller, generator, logger)
	api.RegisterUI(e, web.FS())

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// debugLevel maps the DEBUG env value onto a log level. Unset means info.
func debugLevel(v string) (log.Level, error) {
	if v == "" {
		return log.InfoLevel, nil
	}
	dbg, err := strconv.ParseBool(v)
	if err != nil {
		return log.InfoLevel, err
	}
	if dbg {
		return log.DebugLevel, nil
	}
	return log.InfoLevel, nil
}

// redisOptions accepts either a redis URL or the comma-separated
// host,password=...,ssl=... form some managed providers hand out.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
