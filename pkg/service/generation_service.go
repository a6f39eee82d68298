package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/config"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/event"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/models"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/stream"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/utils"
)

var (
	// ErrGenerationInFlight is returned when a thread already has an
	// active generation. One generation per thread at a time.
	ErrGenerationInFlight = errors.New("a generation is already in progress for this thread")

	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrModelNotAllowed = errors.New("model is not allowed")
)

const defaultSystemPrompt = "You are a financial research assistant. Write clear, " +
	"well-structured reports in markdown. Use headings to delimit report sections."

// ChatModelProvider resolves model IDs to streaming chat models.
// Satisfied by ModelService; tests substitute fakes.
type ChatModelProvider interface {
	Allowed(modelID string) bool
	ChatModel(ctx context.Context, modelID string) (model.BaseChatModel, error)
}

// GenerationSession tracks one in-flight report generation.
type GenerationSession struct {
	ThreadID  string
	UserID    string
	Model     string
	Cancel    context.CancelFunc
	StartedAt time.Time
	done      chan struct{}
}

// GenerationService runs streaming report generations. It enforces one
// generation per thread, parses sections incrementally, and persists
// the finished report in a single transaction before emitting the
// complete frame. Nothing is persisted for failed or cancelled runs.
type GenerationService struct {
	db       *gorm.DB
	provider ChatModelProvider
	threads  *ThreadService
	entities *EntityService
	timeout  time.Duration

	active sync.Map // threadID -> *GenerationSession
}

func NewGenerationService(db *gorm.DB, provider ChatModelProvider, threads *ThreadService, entities *EntityService, cfg *config.AppConfig) *GenerationService {
	return &GenerationService{
		db:       db,
		provider: provider,
		threads:  threads,
		entities: entities,
		timeout:  cfg.GenerationTimeout(),
	}
}

// Generate validates the request, persists the user message, and starts
// streaming. The returned channel carries content and section frames
// followed by exactly one terminal frame, then closes.
func (s *GenerationService) Generate(ctx context.Context, userID string, req *models.GenerateRequest) (<-chan stream.Frame, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if !s.provider.Allowed(req.Model) {
		return nil, ErrModelNotAllowed
	}

	thread, err := s.threads.GetThread(userID, req.ThreadID)
	if err != nil {
		return nil, err
	}

	history, err := s.threads.GetMessages(userID, thread.ID)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithTimeout(context.Background(), s.timeout)

	session := &GenerationSession{
		ThreadID:  thread.ID,
		UserID:    userID,
		Model:     req.Model,
		Cancel:    cancel,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}
	if _, loaded := s.active.LoadOrStore(thread.ID, session); loaded {
		cancel()
		return nil, ErrGenerationInFlight
	}

	// The user message is durable even if the generation later fails.
	userMsg := &models.Message{
		ID:       uuid.New().String(),
		ThreadID: thread.ID,
		Role:     models.RoleUser,
		Content:  req.Prompt,
		Status:   models.MessageStatusSent,
	}
	if err := s.db.Create(userMsg).Error; err != nil {
		s.active.Delete(thread.ID)
		cancel()
		return nil, errors.Wrap(err, "failed to save user message")
	}

	// Abort upstream if the caller goes away mid-stream.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-session.done:
		}
	}()

	frames := make(chan stream.Frame, 128)

	event.Emit(event.GenerationStartedEvent{
		ThreadID: thread.ID,
		UserID:   userID,
		Model:    req.Model,
	})

	go func() {
		defer close(frames)
		defer func() {
			close(session.done)
			s.active.Delete(thread.ID)
		}()
		defer cancel()

		s.runGeneration(streamCtx, session, req, history, frames)
		s.threads.TouchThread(thread.ID)
	}()

	return frames, nil
}

// runGeneration drives the model stream and sends frames. It emits
// exactly one terminal frame on every exit path.
func (s *GenerationService) runGeneration(ctx context.Context, session *GenerationSession, req *models.GenerateRequest, history []models.Message, frames chan<- stream.Frame) {
	logger := utils.GetLogger()

	chatModel, err := s.provider.ChatModel(ctx, req.Model)
	if err != nil {
		logger.Error("failed to create chat model", "model", req.Model, "error", err)
		s.finishWithError(session, frames, err)
		return
	}

	sr, err := chatModel.Stream(ctx, s.buildMessages(req, history))
	if err != nil {
		logger.Error("failed to start model stream", "model", req.Model, "error", err)
		s.finishWithError(session, frames, err)
		return
	}
	defer sr.Close()

	parser := stream.NewParser()
	var content strings.Builder
	var sections []models.Section
	var promptTokens, completionTokens int

	for {
		msg, err := sr.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.finishWithError(session, frames, err)
			return
		}

		if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
			promptTokens = msg.ResponseMeta.Usage.PromptTokens
			completionTokens = msg.ResponseMeta.Usage.CompletionTokens
		}
		if msg.Content == "" {
			continue
		}

		content.WriteString(msg.Content)
		if !s.send(ctx, frames, stream.ContentFrame(msg.Content)) {
			// Consumer or context gone; Recv will surface the
			// cancellation on the next iteration.
			continue
		}
		if done := parser.Feed(msg.Content); len(done) > 0 {
			sections = append(sections, done...)
			s.send(ctx, frames, stream.SectionsFrame(done))
		}
	}

	if tail := parser.Finish(); len(tail) > 0 {
		sections = append(sections, tail...)
		s.send(ctx, frames, stream.SectionsFrame(tail))
	}

	report, err := s.persistReport(session, req, content.String(), sections, promptTokens, completionTokens)
	if err != nil {
		logger.Error("failed to persist report", "thread_id", session.ThreadID, "error", err)
		s.finishWithError(session, frames, err)
		return
	}

	s.sendTerminal(frames, stream.CompleteFrame(report.ID))
	event.Emit(event.GenerationCompletedEvent{
		ThreadID: session.ThreadID,
		ReportID: report.ID,
		Sections: len(sections),
	})
	logger.Info("generation completed",
		"thread_id", session.ThreadID, "report_id", report.ID, "sections", len(sections))
}

// persistReport writes the report, its sections and mentions, and the
// assistant message in one transaction.
func (s *GenerationService) persistReport(session *GenerationSession, req *models.GenerateRequest, content string, sections []models.Section, promptTokens, completionTokens int) (*models.Report, error) {
	report := &models.Report{
		ID:               uuid.New().String(),
		ThreadID:         session.ThreadID,
		Content:          content,
		Model:            req.Model,
		Prompt:           req.Prompt,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}

	mentions := s.entities.Extract(content)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			return errors.Wrap(err, "failed to create report")
		}
		for i := range sections {
			sections[i].ReportID = report.ID
			if err := tx.Create(&sections[i]).Error; err != nil {
				return errors.Wrap(err, "failed to create section")
			}
		}
		if err := s.entities.Persist(tx, report.ID, mentions); err != nil {
			return err
		}

		assistantMsg := &models.Message{
			ID:       uuid.New().String(),
			ThreadID: session.ThreadID,
			Role:     models.RoleAssistant,
			Content:  content,
			ReportID: &report.ID,
			Status:   models.MessageStatusSent,
		}
		if err := tx.Create(assistantMsg).Error; err != nil {
			return errors.Wrap(err, "failed to create assistant message")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// CancelGeneration aborts the active generation on a thread, if any.
func (s *GenerationService) CancelGeneration(userID, threadID string) error {
	v, ok := s.active.Load(threadID)
	if !ok {
		return errors.New("no active generation for this thread")
	}
	session := v.(*GenerationSession)
	if session.UserID != userID {
		return ErrThreadNotFound
	}

	utils.GetLogger().Info("cancelling generation", "thread_id", threadID)
	session.Cancel()
	event.Emit(event.GenerationCancelledEvent{ThreadID: threadID})
	return nil
}

// IsGenerating reports whether a thread has an active generation.
func (s *GenerationService) IsGenerating(threadID string) bool {
	_, ok := s.active.Load(threadID)
	return ok
}

// State returns a snapshot for reconnecting clients.
func (s *GenerationService) State(threadID string) *models.GenerationState {
	state := &models.GenerationState{ThreadID: threadID}
	if v, ok := s.active.Load(threadID); ok {
		session := v.(*GenerationSession)
		state.IsGenerating = true
		state.Model = session.Model
		state.StartedAt = session.StartedAt.UnixMilli()
	}
	return state
}

func (s *GenerationService) buildMessages(req *models.GenerateRequest, history []models.Message) []*schema.Message {
	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	msgs := []*schema.Message{schema.SystemMessage(systemPrompt)}
	for _, m := range history {
		switch m.Role {
		case models.RoleUser:
			msgs = append(msgs, schema.UserMessage(m.Content))
		case models.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		}
	}
	return append(msgs, schema.UserMessage(req.Prompt))
}

// send delivers a non-terminal frame, giving up when the generation
// context ends.
func (s *GenerationService) send(ctx context.Context, frames chan<- stream.Frame, f stream.Frame) bool {
	select {
	case frames <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// sendTerminal delivers the single terminal frame. The generation
// context may already be done here, so it waits on the channel with a
// grace period instead.
func (s *GenerationService) sendTerminal(frames chan<- stream.Frame, f stream.Frame) {
	select {
	case frames <- f:
	case <-time.After(5 * time.Second):
		utils.GetLogger().Warn("terminal frame dropped, consumer gone", "type", f.Type)
	}
}

func (s *GenerationService) finishWithError(session *GenerationSession, frames chan<- stream.Frame, err error) {
	msg := formatGenerationError(err)
	s.sendTerminal(frames, stream.ErrorFrame(msg))
	if !errors.Is(err, context.Canceled) && !strings.Contains(err.Error(), "context canceled") {
		event.Emit(event.GenerationFailedEvent{ThreadID: session.ThreadID, Reason: msg})
	}
}

// formatGenerationError converts internal errors to client-facing
// messages without leaking provider detail.
func formatGenerationError(err error) string {
	errStr := err.Error()

	switch {
	case errors.Is(err, context.Canceled) || strings.Contains(errStr, "context canceled"):
		return "Generation cancelled"

	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(errStr, "context deadline exceeded"):
		return "Generation timed out. Please try again or simplify your request."

	case strings.Contains(errStr, "rate limit"):
		return "Rate limit exceeded. Please wait a moment and try again."

	case strings.Contains(errStr, "insufficient_quota"):
		return "API quota exceeded. Please check your API key balance."

	case strings.Contains(errStr, "invalid_api_key") || strings.Contains(errStr, "authentication"):
		return "Invalid API key. Please check your provider configuration."

	case strings.Contains(errStr, "model not found"):
		return "The selected model is not available. Please choose a different model."

	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host"):
		return "Failed to connect to the model provider. Please check your network connection."

	default:
		return "Generation failed: " + firstLine(errStr)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
