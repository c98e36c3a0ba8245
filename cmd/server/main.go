package main

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/corpedigital/assistant-api/internal/ai"
	"github.com/corpedigital/assistant-api/internal/artifact"
	"github.com/corpedigital/assistant-api/internal/assistant"
	"github.com/corpedigital/assistant-api/internal/config"
	"github.com/corpedigital/assistant-api/internal/conversation"
	"github.com/corpedigital/assistant-api/internal/corpe"
	"github.com/corpedigital/assistant-api/internal/db"
	"github.com/corpedigital/assistant-api/internal/httpapi"
	"github.com/corpedigital/assistant-api/internal/httpapi/handlers"
	"github.com/corpedigital/assistant-api/internal/logger"
	"github.com/corpedigital/assistant-api/internal/pin"
	"github.com/corpedigital/assistant-api/internal/store/rabbitmq"
	"github.com/corpedigital/assistant-api/internal/tools"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("db connect failed", "error", err)
	}

	pinSvc, err := pin.NewService(ctx, pin.NewGormStore(gdb), log)
	if err != nil {
		log.Fatal("pin service init failed", "error", err)
	}
	pinSvc.StartSweeper(pin.SweepInterval)
	defer pinSvc.StopSweeper()

	cache := artifact.NewCache()

	corpeClient := corpe.NewClient(cfg.CorpeBaseURL, log)
	tickets := tools.NewTicketTool(corpeClient, pinSvc, cache, tools.TicketConfig{
		ListEndpoint:   cfg.CorpeCobrancasEndpoint,
		DetailEndpoint: cfg.CorpeBoletosEndpoint,
		AppURL:         cfg.AppURL,
	}, log)
	cards := tools.NewCardTool(corpeClient, cfg.CorpeCarteirinhaEndpoint, log)

	reg := ai.NewRegistry()
	reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenAIModel
		}
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, m), nil
	})
	provider, err := reg.Get(ctx, cfg.AIProvider, cfg.OpenAIModel)
	if err != nil {
		log.Fatal("provider init failed", "provider", cfg.AIProvider, "error", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	convStore := conversation.NewStore(rdb, cfg.ConversationLimit, log)

	svc := assistant.NewService(provider, tickets, cards, convStore, cfg.EnableCardLookup, log)
	repo := assistant.NewRepo(gdb)

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatal("rabbit connect failed", "error", err)
	}
	defer pub.Close()

	h := handlers.NewHandler(cfg, log, svc, repo, pub, cache, convStore)
	r := httpapi.NewRouter(h, log)

	log.Info("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
