package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corpedigital/assistant-api/internal/assistant"
	"github.com/corpedigital/assistant-api/internal/common"
)

type chatReq struct {
	Text           string `json:"text" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

// PostChat handles a synchronous chat turn. The kw session key, when
// present, comes in as a request header.
func (h *Handler) PostChat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	kw := c.GetHeader("kw")

	result, err := h.Chat.HandleTurn(c.Request.Context(), req.ConversationID, req.Text, kw)
	if err != nil {
		var failure *assistant.TurnFailure
		if errors.As(err, &failure) {
			common.Fail(c, http.StatusInternalServerError, 50002, failure.Message)
			return
		}
		h.Log.Error("chat turn failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "erro interno do servidor")
		return
	}

	common.Ok(c, gin.H{
		"text":            result.Text,
		"conversation_id": result.ConversationID,
	})
}

// PostChatAsync queues the turn for the worker instead of answering
// inline. An Idempotency-Key header makes retried submissions return
// the already-created job.
func (h *Handler) PostChatAsync(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	jobID, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create job")
		return
	}

	job := &assistant.Job{
		ID:             jobID,
		ConversationID: req.ConversationID,
		Prompt:         req.Text,
		KW:             c.GetHeader("kw"),
		Status:         assistant.JobQueued,
	}
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		job.IdempotencyKey = &key
	}

	created, isNew, err := h.Jobs.CreateJobOrGetExisting(c.Request.Context(), job)
	if err != nil {
		h.Log.Error("create job failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create job")
		return
	}

	if isNew {
		if err := h.Publisher.PublishJob(c.Request.Context(), created.ID); err != nil {
			h.Log.Error("publish job failed", "job_id", created.ID, "error", err)
			common.Fail(c, http.StatusInternalServerError, 50003, "failed to enqueue job")
			return
		}
	}

	common.Ok(c, gin.H{
		"job_id": created.ID,
		"status": created.Status,
	})
}

func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.Jobs.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40404, "job not found")
		return
	}

	resp := gin.H{
		"job_id":          job.ID,
		"conversation_id": job.ConversationID,
		"status":          job.Status,
	}
	if job.Response != nil {
		resp["text"] = *job.Response
	}
	if job.Error != nil {
		resp["error"] = *job.Error
	}
	common.Ok(c, resp)
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	id := c.Param("id")

	if err := h.Conversations.Clear(c.Request.Context(), id); err != nil {
		h.Log.Error("clear conversation failed", "conversation_id", id, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to clear conversation")
		return
	}
	common.Ok(c, gin.H{"conversation_id": id})
}
