package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/bidtounsi/go-bidtounsi-server/apiroutes"
	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/queue"
	"github.com/bidtounsi/go-bidtounsi-server/repository"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

// loadCapabilityKeys loads the ed25519 signing key for capability tokens from
// config, or generates an ephemeral pair. An ephemeral key invalidates
// outstanding capabilities on restart, which is acceptable: they live 15
// minutes and are cheap to re-acquire.
func loadCapabilityKeys(conf global.Config) {
	if conf.Admin.CapabilityKeyBase64 != "" {
		decodedPrivBytes, err := base64.StdEncoding.DecodeString(conf.Admin.CapabilityKeyBase64)
		if err != nil {
			panic(fmt.Sprintf("failed to decode capability signing key: %s", err.Error()))
		}
		if len(decodedPrivBytes) != ed25519.PrivateKeySize {
			panic("capability signing key has wrong length")
		}
		global.CapabilityPrivateKey = ed25519.PrivateKey(decodedPrivBytes)
		global.CapabilityPublicKey = global.CapabilityPrivateKey.Public().(ed25519.PublicKey)
		return
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	global.CapabilityPublicKey = pub
	global.CapabilityPrivateKey = priv
	global.Logger.Log("level", "warn", "msg", "using ephemeral capability signing key")
}

func initRedisRateLimiter(conf global.Config) *redis.Client {
	redisRateLimitClient := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Host + ":" + strconv.Itoa(conf.Redis.Port),
		Username: conf.Redis.Username,
		Password: conf.Redis.Password,
		DB:       1,
	})

	rCtx, rCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer rCancel()

	_ = redisRateLimitClient.FlushDB(rCtx).Err()

	limiter := redis_rate.NewLimiter(redisRateLimitClient)
	global.RateLimiter = limiter

	return redisRateLimitClient
}

// calculates the retry delay using exponential backoff
func asyncRetryDelayFunc(attempt int, err error, t *asynq.Task) time.Duration {
	baseDelay := 1 * time.Minute
	maxDelay := 60 * time.Minute

	delay := baseDelay * time.Duration(1<<attempt)
	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}

// initializes the async queue
func initAsyncQueue(env *types.Environment) (*asynq.Server, *asynq.Client) {
	queueRedisClient := asynq.RedisClientOpt{
		Addr:     global.Conf.Redis.Host + ":" + strconv.Itoa(global.Conf.Redis.Port),
		Username: global.Conf.Redis.Username,
		Password: global.Conf.Redis.Password,
		DB:       2,
	}

	logLevel := asynq.InfoLevel
	if global.Conf.Mode != "debug" {
		logLevel = asynq.WarnLevel
	}
	concurrency := 10
	if global.Conf.Queue.Concurrency > 0 {
		concurrency = global.Conf.Queue.Concurrency
	}

	taskClient := asynq.NewClient(queueRedisClient)
	taskServer := asynq.NewServer(
		queueRedisClient,
		asynq.Config{
			Concurrency:    concurrency,
			LogLevel:       logLevel,
			RetryDelayFunc: asyncRetryDelayFunc,
		},
	)

	emailQueue := queue.NewEmailQueue(env)
	mux := asynq.NewServeMux()
	mux.HandleFunc(types.QueueTypeEmailSend, emailQueue.ProcessEmailSendTask)

	if err := taskServer.Start(mux); err != nil {
		log.Fatalf("could not start task queue server: %v", err)
	}
	return taskServer, taskClient
}

func main() {
	var (
		configFile string
	)
	// configuration file optional path. Default: current dir with filename conf.yaml
	flag.StringVar(&configFile, "c", "conf.yaml", "Configuration file path.")
	flag.StringVar(&configFile, "config", "conf.yaml", "Configuration file path.")
	flag.Usage = usage
	flag.Parse()

	// loading configuration file
	err := global.LoadConfig(configFile, &global.Conf)
	if err != nil {
		global.Logger.Log("level", "error", "msg", "failed to load configuration", "err", err.Error())
		panic("failed to load " + configFile)
	}

	loadCapabilityKeys(global.Conf)
	rrClient := initRedisRateLimiter(global.Conf)
	defer rrClient.Close()

	env := types.NewEnvironment(rrClient)
	defer env.Cron.Stop()

	if global.Conf.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	dbSelector := ConfigDBSelector()
	ConfigDBIndexing(dbSelector.(*repository.CouchDBSelector), env)

	// register SMTP handlers from config
	RegisterSmtpHandlers(&global.Conf)

	// initialize the async queue
	taskServer, taskClient := initAsyncQueue(env)
	defer taskClient.Close()
	env.TaskClient = taskClient

	// configure routes
	router = apiroutes.ConfigRoutes(router, dbSelector, env)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", global.Conf.Host, global.Conf.Port),
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		global.Logger.Log("level", "info", "msg", "server is ready to handle requests", "port", global.Conf.Port)
		if sErr := srv.ListenAndServe(); sErr != nil && sErr != http.ErrServerClosed {
			panic(fmt.Sprintf("%v\n", sErr))
		}
	}()

	<-quit
	global.Logger.Log("level", "info", "msg", "shutting down")

	taskServer.Stop()
	taskServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if shErr := srv.Shutdown(ctx); shErr != nil {
		global.Logger.Log("level", "error", "msg", "forced shutdown", "err", shErr.Error())
	}
}

// usage will print out the flag options for the server.
func usage() {
	usageStr := `Usage: server [options]
	Server Options:
	-c, --config <file>              Configuration file path
`
	fmt.Printf("%s\n", usageStr)
	os.Exit(0)
}
