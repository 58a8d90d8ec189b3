package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/pkg/events"
	"github.com/ArowuTest/mcash-backend/pkg/smsgateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type publishedEvent struct {
	eventType string
	data      any
}

type stubPublisher struct {
	events []publishedEvent
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, eventType string, data any) error {
	p.events = append(p.events, publishedEvent{eventType: eventType, data: data})
	return p.err
}

type failingGateway struct{ calls int }

func (g *failingGateway) SendSMS(context.Context, string, string) (string, error) {
	g.calls++
	return "", errors.New("gateway unavailable")
}

func TestTransactionCompletedNotifiesEachParty(t *testing.T) {
	publisher := &stubPublisher{}
	primary := smsgateway.NewMockGateway("primary")
	svc := NewNotificationService(publisher, primary, nil)

	sender := &models.Account{ID: primitive.NewObjectID(), MobileNumber: "01711111111"}
	receiver := &models.Account{ID: primitive.NewObjectID(), MobileNumber: "01722222222"}
	txn := &models.Transaction{
		TransactionID:     "ref-1",
		Type:              models.TransactionSendMoney,
		Amount:            200,
		Fee:               5,
		SenderAccountID:   sender.ID,
		ReceiverAccountID: receiver.ID,
	}
	svc.TransactionCompleted(context.Background(), txn, sender, receiver, nil)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.TransactionCreated, publisher.events[0].eventType)
	payload, ok := publisher.events[0].data.(events.TransactionCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, sender.ID.Hex(), payload.SenderAccountID)
	assert.Empty(t, payload.AgentAccountID)

	sent := primary.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, sender.MobileNumber, sent[0].MSISDN)
	assert.Contains(t, sent[0].Message, "you sent 200 taka (fee 5)")
	assert.Equal(t, receiver.MobileNumber, sent[1].MSISDN)
	assert.Contains(t, sent[1].Message, "you received 200 taka")
}

func TestSMSFallsBackToSecondaryGateway(t *testing.T) {
	primary := &failingGateway{}
	fallback := smsgateway.NewMockGateway("fallback")
	svc := NewNotificationService(nil, primary, fallback)

	agent := &models.Account{ID: primitive.NewObjectID(), MobileNumber: "01733333333"}
	svc.AgentDecided(context.Background(), "agent@mcash.test", agent, true)

	assert.Equal(t, 1, primary.calls)
	sent := fallback.Sent()
	require.Len(t, sent, 1)
	assert.True(t, strings.HasSuffix(sent[0].Message, "has been approved."))
}

func TestNotificationFailuresAreSwallowed(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("redis down")}
	svc := NewNotificationService(publisher, &failingGateway{}, nil)
	request := &models.RechargeRequest{RequestID: "r1", AgentAccountID: primitive.NewObjectID(), Amount: 5000, Status: models.RechargeApproved}

	assert.NotPanics(t, func() {
		svc.RechargeDecided(context.Background(), request, &models.Account{MobileNumber: "01744444444"})
		svc.RechargeRequested(context.Background(), request)
	})
	require.Len(t, publisher.events, 2)
	assert.Equal(t, events.RechargeDecided, publisher.events[0].eventType)
	assert.Equal(t, events.RechargeRequested, publisher.events[1].eventType)
}

func TestNotificationOutlivesCancelledRequest(t *testing.T) {
	primary := smsgateway.NewMockGateway("primary")
	svc := NewNotificationService(nil, primary, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agent := &models.Account{ID: primitive.NewObjectID(), MobileNumber: "01755555555"}
	svc.AgentDecided(ctx, "agent@mcash.test", agent, false)

	require.Len(t, primary.Sent(), 1)
	assert.Contains(t, primary.Sent()[0].Message, "not approved")
}

func TestReceiptTexts(t *testing.T) {
	user := &models.Account{ID: primitive.NewObjectID()}
	agent := &models.Account{ID: primitive.NewObjectID()}
	cashOut := &models.Transaction{TransactionID: "x", Type: models.TransactionCashOut, Amount: 1000, Fee: 15, AgentCommission: 10, SenderAccountID: user.ID, AgentAccountID: agent.ID}
	cashIn := &models.Transaction{TransactionID: "y", Type: models.TransactionCashIn, Amount: 500, ReceiverAccountID: user.ID, AgentAccountID: agent.ID}

	tests := []struct {
		name  string
		txn   *models.Transaction
		party *models.Account
		want  string
	}{
		{"cash out user", cashOut, user, "you cashed out 1000 taka (fee 15)"},
		{"cash out agent", cashOut, agent, "Commission 10"},
		{"cash in user", cashIn, user, "500 taka was added"},
		{"cash in agent", cashIn, agent, "cash in of 500 taka completed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, receipt(tt.txn, tt.party), tt.want)
		})
	}
}
