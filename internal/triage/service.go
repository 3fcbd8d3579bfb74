package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/ngophungianghi/careai-server/internal/clinic"
	"github.com/ngophungianghi/careai-server/internal/observability/metrics"
	"github.com/ngophungianghi/careai-server/pkg/logging"
)

var triageTracer = otel.Tracer("careai.internal.triage")

// agentUnavailableReply is shown in the transcript when the agent cannot be
// reached. The conversation stays open so the patient can retry.
const agentUnavailableReply = "Xin lỗi, hiện tại tôi đang gặp sự cố kết nối. Bạn vui lòng gửi lại tin nhắn sau ít phút nhé."

const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.4
)

// Turn is the outcome of one triage exchange: the agent's visible reply plus
// any booking recommendation extracted from it.
type Turn struct {
	SessionID      string         `json:"session_id"`
	Reply          string         `json:"reply"`
	Recommendation Recommendation `json:"recommendation"`
}

// Service runs the triage conversation loop.
type Service struct {
	llm      LLMClient
	doctors  clinic.Repository
	sessions SessionStore
	modelID  string
	metrics  *metrics.TriageMetrics
	logger   *logging.Logger
}

// NewService constructs a triage service.
func NewService(llm LLMClient, doctors clinic.Repository, sessions SessionStore, modelID string, m *metrics.TriageMetrics, logger *logging.Logger) *Service {
	if llm == nil {
		panic("triage: llm client required")
	}
	if doctors == nil {
		panic("triage: doctor repository required")
	}
	if sessions == nil {
		panic("triage: session store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		llm:      llm,
		doctors:  doctors,
		sessions: sessions,
		modelID:  modelID,
		metrics:  m,
		logger:   logger,
	}
}

// StartSession opens a new empty triage session for a patient.
func (s *Service) StartSession(ctx context.Context, patientPhone string) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:           uuid.NewString(),
		PatientPhone: patientPhone,
		Messages:     []ChatMessage{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info("triage session started", "session_id", session.ID)
	return session, nil
}

// GetSession returns the stored transcript for a session.
func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.sessions.Load(ctx, id)
}

// ProcessMessage appends the patient's utterance to the session, asks the
// agent for a reply, and extracts any booking recommendation from it. An
// unreachable agent degrades to an apologetic reply rather than an error so
// the conversation can continue.
func (s *Service) ProcessMessage(ctx context.Context, sessionID, text string) (*Turn, error) {
	ctx, span := triageTracer.Start(ctx, "triage.process_message")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("triage: empty message")
	}

	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	roster, err := s.doctors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("triage: load doctor roster: %w", err)
	}

	session.Messages = append(session.Messages, ChatMessage{Role: ChatRoleUser, Content: text})

	start := time.Now()
	resp, err := s.llm.Complete(ctx, LLMRequest{
		Model:       s.modelID,
		System:      []string{BuildSystemPrompt(roster)},
		Messages:    session.Messages,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	})
	s.metrics.ObserveAgentLatency(time.Since(start).Seconds())

	if err != nil || strings.TrimSpace(resp.Text) == "" {
		span.RecordError(err)
		s.metrics.ObserveAgentFailure()
		s.metrics.ObserveTurn("agent_unavailable")
		s.logger.Error("agent completion failed", "session_id", sessionID, "error", err)

		session.Messages = append(session.Messages, ChatMessage{Role: ChatRoleAssistant, Content: agentUnavailableReply})
		session.UpdatedAt = time.Now().UTC()
		if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
			return nil, saveErr
		}
		return &Turn{SessionID: sessionID, Reply: agentUnavailableReply, Recommendation: Recommendation{DoctorIDs: []string{}}}, nil
	}

	parsed := ParseReply(resp.Text)
	rec := Resolve(parsed, roster)
	s.metrics.ObserveDirective(parsed.Kind.String())
	s.metrics.ObserveTurn("ok")

	session.Messages = append(session.Messages, ChatMessage{Role: ChatRoleAssistant, Content: parsed.DisplayText})
	session.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("triage turn completed",
		"session_id", sessionID,
		"directive", parsed.Kind.String(),
		"recommended_doctors", len(rec.DoctorIDs),
		"tokens", resp.Usage.TotalTokens,
	)

	return &Turn{SessionID: sessionID, Reply: parsed.DisplayText, Recommendation: rec}, nil
}
