package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/corpedigital/assistant-api/internal/ai"
	"github.com/corpedigital/assistant-api/internal/artifact"
	"github.com/corpedigital/assistant-api/internal/assistant"
	"github.com/corpedigital/assistant-api/internal/config"
	"github.com/corpedigital/assistant-api/internal/conversation"
	"github.com/corpedigital/assistant-api/internal/corpe"
	"github.com/corpedigital/assistant-api/internal/db"
	"github.com/corpedigital/assistant-api/internal/logger"
	"github.com/corpedigital/assistant-api/internal/pin"
	"github.com/corpedigital/assistant-api/internal/tools"
)

type jobMsg struct {
	JobID string `json:"job_id"`
}

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("rabbit dial failed", "error", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("rabbit channel failed", "error", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	}); err != nil {
		log.Fatal("queue declare failed", "error", err)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal("qos failed", "error", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume failed", "error", err)
	}

	log.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency)

	// worker pool
	deliveries := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range deliveries {
				var m jobMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Warn("bad message", "worker", workerID, "error", err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleJob(ctx, svc, repo, m.JobID); err != nil {
					log.Error("job failed", "worker", workerID, "job_id", m.JobID, "cost", time.Since(start), "error", err)
					_ = d.Nack(false, false)
					continue
				}
				log.Info("job done", "worker", workerID, "job_id", m.JobID, "cost", time.Since(start))

				if err := d.Ack(false); err != nil {
					log.Warn("ack failed", "worker", workerID, "job_id", m.JobID, "error", err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(deliveries)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			deliveries <- d
		}
	}
}

func handleJob(ctx context.Context, svc *assistant.Service, repo *assistant.Repo, jobID string) error {
	_ = repo.UpdateJobStatusRunning(ctx, jobID)

	job, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	result, err := svc.HandleTurn(ctx, job.ConversationID, job.Prompt, job.KW)
	if err != nil {
		_ = repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}

	return repo.MarkJobSucceeded(ctx, jobID, result.Text)
}
