package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/pkg/events"
	"github.com/ArowuTest/mcash-backend/pkg/smsgateway"
)

const notifyTimeout = 5 * time.Second

// EventPublisher appends domain events to the event stream
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// Compile-time check to ensure NotificationService implements Notifier
var _ Notifier = (*NotificationService)(nil)

// NotificationService publishes committed outcomes and texts the parties.
// It runs after the commit; failures are logged and never reach the caller.
type NotificationService struct {
	publisher EventPublisher
	primary   smsgateway.Gateway
	fallback  smsgateway.Gateway
}

// NewNotificationService creates a new NotificationService. fallback may be nil.
func NewNotificationService(publisher EventPublisher, primary, fallback smsgateway.Gateway) *NotificationService {
	return &NotificationService{publisher: publisher, primary: primary, fallback: fallback}
}

// TransactionCompleted publishes the ledger entry and sends a receipt to each party
func (s *NotificationService) TransactionCompleted(ctx context.Context, txn *models.Transaction, parties ...*models.Account) {
	ctx, cancel := detached(ctx)
	defer cancel()

	s.publish(ctx, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID:     txn.TransactionID,
		Type:              string(txn.Type),
		Amount:            txn.Amount,
		Fee:               txn.Fee,
		SenderAccountID:   hexOrEmpty(txn.SenderAccountID.IsZero(), txn.SenderAccountID.Hex()),
		ReceiverAccountID: hexOrEmpty(txn.ReceiverAccountID.IsZero(), txn.ReceiverAccountID.Hex()),
		AgentAccountID:    hexOrEmpty(txn.AgentAccountID.IsZero(), txn.AgentAccountID.Hex()),
	})

	for _, party := range parties {
		if party == nil {
			continue
		}
		s.sendSMS(ctx, party.MobileNumber, receipt(txn, party))
	}
}

// RechargeRequested publishes a new recharge request
func (s *NotificationService) RechargeRequested(ctx context.Context, request *models.RechargeRequest) {
	ctx, cancel := detached(ctx)
	defer cancel()

	s.publish(ctx, events.RechargeRequested, rechargeEvent(request))
}

// RechargeDecided publishes the decision and tells the agent. agent may be nil.
func (s *NotificationService) RechargeDecided(ctx context.Context, request *models.RechargeRequest, agent *models.Account) {
	ctx, cancel := detached(ctx)
	defer cancel()

	s.publish(ctx, events.RechargeDecided, rechargeEvent(request))
	if agent != nil {
		s.sendSMS(ctx, agent.MobileNumber, fmt.Sprintf("mCash: your recharge request of %d taka was %s.", request.Amount, request.Status))
	}
}

// AgentDecided publishes an onboarding decision and tells the agent
func (s *NotificationService) AgentDecided(ctx context.Context, email string, agent *models.Account, approved bool) {
	ctx, cancel := detached(ctx)
	defer cancel()

	event := events.AgentEvent{Email: email}
	if agent != nil {
		event.AccountID = agent.ID.Hex()
	}
	eventType := events.AgentRejected
	message := "mCash: your agent registration was not approved."
	if approved {
		eventType = events.AgentApproved
		message = "mCash: your agent account has been approved."
	}
	s.publish(ctx, eventType, event)
	if agent != nil {
		s.sendSMS(ctx, agent.MobileNumber, message)
	}
}

// AccountRegistered publishes a self-registration
func (s *NotificationService) AccountRegistered(ctx context.Context, account *models.Account) {
	ctx, cancel := detached(ctx)
	defer cancel()

	s.publish(ctx, events.AccountRegistered, events.AccountRegisteredEvent{
		AccountID: account.ID.Hex(),
		Role:      string(account.Role),
	})
}

func (s *NotificationService) publish(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		slog.Warn("Failed to publish event", "type", eventType, "error", err)
	}
}

// sendSMS tries the primary gateway, then the fallback
func (s *NotificationService) sendSMS(ctx context.Context, msisdn, message string) {
	if s.primary == nil || msisdn == "" {
		return
	}
	messageID, err := s.primary.SendSMS(ctx, msisdn, message)
	if err != nil && s.fallback != nil {
		slog.Warn("Primary SMS gateway failed, trying fallback", "msisdn", msisdn, "error", err)
		messageID, err = s.fallback.SendSMS(ctx, msisdn, message)
	}
	if err != nil {
		slog.Warn("Failed to send SMS", "msisdn", msisdn, "error", err)
		return
	}
	slog.Debug("SMS sent", "msisdn", msisdn, "messageId", messageID)
}

// detached keeps request values but outlives a cancelled request
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
}

func rechargeEvent(request *models.RechargeRequest) events.RechargeEvent {
	return events.RechargeEvent{
		RequestID:      request.RequestID,
		AgentAccountID: request.AgentAccountID.Hex(),
		Amount:         request.Amount,
		Status:         string(request.Status),
	}
}

func receipt(txn *models.Transaction, party *models.Account) string {
	switch txn.Type {
	case models.TransactionSendMoney:
		if party.ID == txn.SenderAccountID {
			return fmt.Sprintf("mCash: you sent %d taka (fee %d). Ref %s.", txn.Amount, txn.Fee, txn.TransactionID)
		}
		return fmt.Sprintf("mCash: you received %d taka. Ref %s.", txn.Amount, txn.TransactionID)
	case models.TransactionCashIn:
		if party.ID == txn.AgentAccountID {
			return fmt.Sprintf("mCash: cash in of %d taka completed. Ref %s.", txn.Amount, txn.TransactionID)
		}
		return fmt.Sprintf("mCash: %d taka was added to your account. Ref %s.", txn.Amount, txn.TransactionID)
	case models.TransactionCashOut:
		if party.ID == txn.AgentAccountID {
			return fmt.Sprintf("mCash: pay out %d taka in cash. Commission %d. Ref %s.", txn.Amount, txn.AgentCommission, txn.TransactionID)
		}
		return fmt.Sprintf("mCash: you cashed out %d taka (fee %d). Ref %s.", txn.Amount, txn.Fee, txn.TransactionID)
	default:
		return fmt.Sprintf("mCash: transaction %s completed.", txn.TransactionID)
	}
}

func hexOrEmpty(zero bool, hex string) string {
	if zero {
		return ""
	}
	return hex
}
