package webchat

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/ngophungianghi/careai-server/internal/clinic"
	"github.com/ngophungianghi/careai-server/internal/triage"
)

type fixedLLM struct {
	reply string
}

func (f *fixedLLM) Complete(_ context.Context, _ triage.LLMRequest) (triage.LLMResponse, error) {
	return triage.LLMResponse{Text: f.reply}, nil
}

func newChatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	doctors := clinic.NewInMemoryRepository()
	_, err := doctors.Create(context.Background(), &clinic.Doctor{
		ID:        "doc-1",
		Name:      "BS. Nguyễn Văn Hùng",
		Specialty: clinic.SpecialtyCardiology,
	})
	require.NoError(t, err)

	svc := triage.NewService(&fixedLLM{reply: reply}, doctors, triage.NewInMemorySessionStore(), "test-model", nil, nil)
	h := NewHandler(svc, nil)

	srv := httptest.NewServer(h.WebSocketServer())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/webchat/ws" + query
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func receive(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	var msg OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	return msg
}

func TestWebchatSessionHandshake(t *testing.T) {
	srv := newChatServer(t, "Chào bạn, bạn cần tư vấn gì?")
	conn := dial(t, srv, "")

	msg := receive(t, conn)
	assert.Equal(t, "session", msg.Type)
	assert.NotEmpty(t, msg.SessionID)
}

func TestWebchatMessageRoundTrip(t *testing.T) {
	srv := newChatServer(t, "Bạn nên khám Tim mạch. [ACTION:SHOW_BOOKING_LINK:Tim mạch] [SUMMARY: đau ngực]")
	conn := dial(t, srv, "")

	receive(t, conn) // session handshake

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "Tôi bị đau ngực"}))

	typing := receive(t, conn)
	assert.Equal(t, "typing", typing.Type)

	reply := receive(t, conn)
	assert.Equal(t, "message", reply.Type)
	assert.Equal(t, "Bạn nên khám Tim mạch.", reply.Text)
	require.NotNil(t, reply.Recommendation)
	assert.Equal(t, []string{"doc-1"}, reply.Recommendation.DoctorIDs)
	assert.Equal(t, "đau ngực", reply.Recommendation.ClinicalSummary)
}

func TestWebchatPingPong(t *testing.T) {
	srv := newChatServer(t, "xin chào")
	conn := dial(t, srv, "")

	receive(t, conn) // session handshake

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "ping"}))
	msg := receive(t, conn)
	assert.Equal(t, "pong", msg.Type)
}

func TestWebchatResumeReplaysHistory(t *testing.T) {
	srv := newChatServer(t, "Đau bao lâu rồi ạ?")

	conn := dial(t, srv, "")
	first := receive(t, conn)
	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "Tôi bị đau đầu"}))
	receive(t, conn) // typing
	receive(t, conn) // reply
	conn.Close()

	resumed := dial(t, srv, "?session="+first.SessionID)
	handshake := receive(t, resumed)
	assert.Equal(t, first.SessionID, handshake.SessionID)

	history := receive(t, resumed)
	require.Equal(t, "history", history.Type)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "Tôi bị đau đầu", history.Messages[0].Text)
	assert.Equal(t, "Đau bao lâu rồi ạ?", history.Messages[1].Text)
}
