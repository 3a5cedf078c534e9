package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"dataroom-chatbot/internal/ai"
	"dataroom-chatbot/internal/model"
	"dataroom-chatbot/internal/repository"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageEmpty    = errors.New("message content is empty")
	ErrMessageEnqueue  = errors.New("message enqueue failed")
)

// Answerer is the dataroom answering core as the chat layer sees it.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question string, history []ai.ChatMessage) (string, []string, error)
}

type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

// ChatService layers sessions and persisted history on top of the answering
// core. Turns are enqueued for asynchronous persistence; the history cache
// keeps the hot path off mysql.
type ChatService struct {
	sessionRepo  *repository.SessionRepository
	messageRepo  *repository.MessageRepository
	publisher    AsyncMessagePublisher
	historyCache HistoryCache
	answerer     Answerer
}

func NewChatService(
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	answerer Answerer,
) *ChatService {
	return &ChatService{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		publisher:    publisher,
		historyCache: historyCache,
		answerer:     answerer,
	}
}

type CreateSessionInput struct {
	UserID uint
	Title  string
}

func (s *ChatService) CreateSession(input CreateSessionInput) (*model.Session, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New Conversation"
	}

	session := &model.Session{
		UserID: input.UserID,
		Title:  title,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ListSessions(userID uint) ([]model.Session, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.sessionRepo.ListByUserID(userID)
}

func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID uint) error {
	if userID == 0 || sessionID == 0 {
		return ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if err := s.messageRepo.DeleteBySessionID(sessionID); err != nil {
		return err
	}
	if err := s.sessionRepo.DeleteByIDAndUserID(sessionID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}
	return nil
}

type AskInput struct {
	UserID    uint
	SessionID uint
	Message   string
}

type AskResult struct {
	Answer   string          `json:"answer"`
	Sources  []string        `json:"sources"`
	Messages []model.Message `json:"messages"`
}

// Ask answers one question inside a session: prior turns feed the answering
// core as conversation history, and both the question and the sourced answer
// are enqueued for persistence.
func (s *ChatService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	if input.UserID == 0 || input.SessionID == 0 {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Message)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	session, err := s.sessionRepo.GetByIDAndUserID(input.SessionID, input.UserID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if s.publisher == nil {
		return nil, ErrMessageEnqueue
	}

	history := s.chatHistory(ctx, input.SessionID)

	userMessage := model.Message{
		SessionID: input.SessionID,
		UserID:    input.UserID,
		Role:      "user",
		Content:   content,
		CreatedAt: time.Now(),
	}
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, input.SessionID)
		_ = s.historyCache.DeleteHistory(ctx, input.SessionID)
	}
	if err := s.publisher.Publish(ctx, userMessage); err != nil {
		return nil, ErrMessageEnqueue
	}

	answer, sources, err := s.answerer.AnswerQuestion(ctx, content, history)
	if err != nil {
		return nil, err
	}

	assistantMessage := model.Message{
		SessionID: input.SessionID,
		UserID:    input.UserID,
		Role:      "assistant",
		Content:   answer,
		CreatedAt: time.Now(),
	}
	assistantMessage.SetSources(sources)
	if err := s.publisher.Publish(ctx, assistantMessage); err != nil {
		return nil, ErrMessageEnqueue
	}

	return &AskResult{
		Answer:   answer,
		Sources:  sources,
		Messages: []model.Message{userMessage, assistantMessage},
	}, nil
}

func (s *ChatService) GetHistory(ctx context.Context, userID, sessionID uint, limit int) ([]model.Message, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionRepo.GetByIDAndUserID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageRepo.ListBySessionID(sessionID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages, nil
}

// chatHistory loads prior turns best-effort; a cold cache and a failed repo
// read both degrade to answering without history.
func (s *ChatService) chatHistory(ctx context.Context, sessionID uint) []ai.ChatMessage {
	var messages []model.Message
	if s.historyCache != nil {
		if dirty, err := s.historyCache.IsDirty(ctx, sessionID); err == nil && !dirty {
			if cached, hit, err := s.historyCache.GetHistory(ctx, sessionID); err == nil && hit {
				messages = cached
			}
		}
	}
	if messages == nil && s.messageRepo != nil {
		stored, err := s.messageRepo.ListBySessionID(sessionID, 0)
		if err == nil {
			messages = stored
		}
	}

	history := make([]ai.ChatMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return history
}

func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
