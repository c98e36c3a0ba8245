package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/corpedigital/assistant-api/internal/assistant"
	"github.com/corpedigital/assistant-api/internal/common"
	"github.com/corpedigital/assistant-api/internal/config"
	"github.com/corpedigital/assistant-api/internal/logger"
)

// ChatService runs one full chat turn.
type ChatService interface {
	HandleTurn(ctx context.Context, conversationID, text, kw string) (assistant.TurnResult, error)
}

// JobStore is the job persistence surface the handlers need.
type JobStore interface {
	CreateJobOrGetExisting(ctx context.Context, job *assistant.Job) (*assistant.Job, bool, error)
	GetJobByID(ctx context.Context, id string) (*assistant.Job, error)
}

// JobPublisher hands a queued job id to the broker.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

// ArtifactReader resolves a download token to a cached base64 blob.
type ArtifactReader interface {
	Get(token string) (string, bool)
}

// ConversationClearer drops a conversation's stored history.
type ConversationClearer interface {
	Clear(ctx context.Context, conversationID string) error
}

type Handler struct {
	Cfg config.Config
	Log *logger.Logger

	Chat          ChatService
	Jobs          JobStore
	Publisher     JobPublisher
	Artifacts     ArtifactReader
	Conversations ConversationClearer
}

func NewHandler(cfg config.Config, log *logger.Logger, chat ChatService, jobs JobStore, publisher JobPublisher, artifacts ArtifactReader, conversations ConversationClearer) *Handler {
	return &Handler{
		Cfg:           cfg,
		Log:           log,
		Chat:          chat,
		Jobs:          jobs,
		Publisher:     publisher,
		Artifacts:     artifacts,
		Conversations: conversations,
	}
}

func (h *Handler) Health(c *gin.Context) {
	common.Ok(c, gin.H{"status": "ok"})
}
