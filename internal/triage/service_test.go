package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngophungianghi/careai-server/internal/clinic"
)

type scriptedLLM struct {
	replies  []string
	err      error
	requests []LLMRequest
}

func (f *scriptedLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return LLMResponse{}, f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return LLMResponse{Text: reply, StopReason: "end_turn"}, nil
}

func newTriageService(t *testing.T, llm LLMClient) (*Service, clinic.Repository) {
	t.Helper()
	doctors := clinic.NewInMemoryRepository()
	for _, d := range testRoster() {
		_, err := doctors.Create(context.Background(), d)
		require.NoError(t, err)
	}
	return NewService(llm, doctors, NewInMemorySessionStore(), "test-model", nil, nil), doctors
}

func TestProcessMessageRecommendsSpecialty(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"Bạn nên khám Tim mạch. [ACTION:SHOW_BOOKING_LINK:Tim mạch] [SUMMARY: đau ngực âm ỉ 2 ngày]",
	}}
	svc, _ := newTriageService(t, llm)
	ctx := context.Background()

	session, err := svc.StartSession(ctx, "0901234567")
	require.NoError(t, err)

	turn, err := svc.ProcessMessage(ctx, session.ID, "Tôi bị đau ngực âm ỉ hai ngày nay")
	require.NoError(t, err)

	assert.Equal(t, "Bạn nên khám Tim mạch.", turn.Reply)
	assert.Equal(t, clinic.SpecialtyCardiology, turn.Recommendation.Specialty)
	assert.Equal(t, []string{"doc-1", "doc-3"}, turn.Recommendation.DoctorIDs)
	assert.Equal(t, "đau ngực âm ỉ 2 ngày", turn.Recommendation.ClinicalSummary)
}

func TestProcessMessageSendsRosterAndHistory(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"Đau bao lâu rồi ạ?", "Còn triệu chứng nào khác không?"}}
	svc, _ := newTriageService(t, llm)
	ctx := context.Background()

	session, err := svc.StartSession(ctx, "0901234567")
	require.NoError(t, err)

	_, err = svc.ProcessMessage(ctx, session.ID, "Tôi bị đau đầu")
	require.NoError(t, err)
	_, err = svc.ProcessMessage(ctx, session.ID, "Khoảng ba ngày")
	require.NoError(t, err)

	require.Len(t, llm.requests, 2)
	second := llm.requests[1]

	require.Len(t, second.System, 1)
	assert.Contains(t, second.System[0], "BS. Nguyễn Văn Hùng")
	assert.Contains(t, second.System[0], "ACTION:SHOW_BOOKING_LINK")

	// Transcript grows turn by turn: user, assistant, user.
	require.Len(t, second.Messages, 3)
	assert.Equal(t, ChatRoleUser, second.Messages[0].Role)
	assert.Equal(t, ChatRoleAssistant, second.Messages[1].Role)
	assert.Equal(t, "Khoảng ba ngày", second.Messages[2].Content)
}

func TestProcessMessageAgentFailureDegradesToApology(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("upstream timeout")}
	svc, _ := newTriageService(t, llm)
	ctx := context.Background()

	session, err := svc.StartSession(ctx, "0901234567")
	require.NoError(t, err)

	turn, err := svc.ProcessMessage(ctx, session.ID, "Tôi bị sốt")
	require.NoError(t, err)
	assert.Equal(t, agentUnavailableReply, turn.Reply)
	assert.Empty(t, turn.Recommendation.DoctorIDs)

	// The conversation stays open: a later turn still succeeds.
	llm.err = nil
	llm.replies = []string{"Sốt bao nhiêu độ ạ?"}
	turn, err = svc.ProcessMessage(ctx, session.ID, "Tôi bị sốt")
	require.NoError(t, err)
	assert.Equal(t, "Sốt bao nhiêu độ ạ?", turn.Reply)

	stored, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 4)
	assert.Equal(t, agentUnavailableReply, stored.Messages[1].Content)
}

func TestProcessMessageEmptyAgentReplyTreatedAsUnavailable(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"   "}}
	svc, _ := newTriageService(t, llm)
	ctx := context.Background()

	session, err := svc.StartSession(ctx, "0901234567")
	require.NoError(t, err)

	turn, err := svc.ProcessMessage(ctx, session.ID, "Tôi bị sốt")
	require.NoError(t, err)
	assert.Equal(t, agentUnavailableReply, turn.Reply)
}

func TestProcessMessageUnknownSession(t *testing.T) {
	svc, _ := newTriageService(t, &scriptedLLM{replies: []string{"ok"}})

	_, err := svc.ProcessMessage(context.Background(), "ghost", "xin chào")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProcessMessageRejectsEmptyText(t *testing.T) {
	svc, _ := newTriageService(t, &scriptedLLM{replies: []string{"ok"}})
	ctx := context.Background()

	session, err := svc.StartSession(ctx, "0901234567")
	require.NoError(t, err)

	_, err = svc.ProcessMessage(ctx, session.ID, "   ")
	assert.Error(t, err)
}

func TestFallbackClientUsedOnPrimaryFailure(t *testing.T) {
	primary := &scriptedLLM{err: errors.New("primary down")}
	fallback := &scriptedLLM{replies: []string{"Đau bao lâu rồi ạ?"}}
	client := NewFallbackLLMClient(primary, fallback, nil)

	resp, err := client.Complete(context.Background(), LLMRequest{
		Model:    "test-model",
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "đau đầu"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Đau bao lâu rồi ạ?", resp.Text)
	assert.Len(t, primary.requests, 1)
	assert.Len(t, fallback.requests, 1)
}
