package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"kairo/internal/redisconn"
	"kairo/kairo-api/api"
	"kairo/kairo-api/events"
	"kairo/kairo-api/storage"
	"kairo/kairo-web/views"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("load .env: %v", err)
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("missing JWT_SECRET")
	}
	tokens := api.NewTokenAuth([]byte(secret), envDuration("TOKEN_TTL", api.DefaultTokenTTL), os.Getenv("JWT_ISSUER"))

	var users storage.Users = storage.NewMemory()
	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr != "" {
		table := os.Getenv("USERS_TABLE")
		if table == "" {
			log.Fatal("missing USERS_TABLE")
		}
		t, err := storage.NewTable(connStr, table)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		users = t
	} else {
		log.Warn("STORAGE_CONNECTION_STRING not set, users are kept in memory")
	}

	var publisher events.Publisher = events.Discard{}
	if name := os.Getenv("USER_EVENTS_QUEUE"); name != "" {
		if connStr == "" {
			log.Fatal("USER_EVENTS_QUEUE requires STORAGE_CONNECTION_STRING")
		}
		q, err := events.NewQueue(connStr, name)
		if err != nil {
			log.Fatalf("events queue: %v", err)
		}
		publisher = q
	}

	var reserver api.Reserver
	if conn := os.Getenv("REDIS_CONNECTION_STRING"); conn != "" {
		rc := redisconn.New(conn)
		users = storage.NewCache(users, rc, envDuration("USER_CACHE_TTL", 5*time.Minute))
		reserver = api.NewRedisReserver(rc, envDuration("REGISTER_RESERVATION_TTL", 30*time.Second))
	}

	origins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger := log.New()
	logger.SetLevel(log.GetLevel())
	api.Register(e, api.Deps{
		Users:    users,
		Tokens:   tokens,
		Reserver: reserver,
		Events:   publisher,
		Views:    views.FS,
		Logger:   logger,
	})

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("KAIRO_API_PORT"); ok {
		listenAddr = ":" + val
	}
	e.Logger.Fatal(e.Start(listenAddr))
}

func envDuration(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %v", name, err)
	}
	return d
}
