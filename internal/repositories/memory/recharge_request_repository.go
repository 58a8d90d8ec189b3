package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure RechargeRequestRepository implements the interface
var _ repositories.RechargeRequestRepository = (*RechargeRequestRepository)(nil)

// RechargeRequestRepository is the in-memory RechargeRequestRepository
type RechargeRequestRepository struct {
	store *Store
}

// NewRechargeRequestRepository creates a new RechargeRequestRepository
func NewRechargeRequestRepository(store *Store) *RechargeRequestRepository {
	return &RechargeRequestRepository{store: store}
}

// Create inserts a new recharge request
func (r *RechargeRequestRepository) Create(ctx context.Context, request *models.RechargeRequest) error {
	return r.store.write(ctx, func(u *unit) error {
		if err := u.lock(rechargeKey(request.RequestID)); err != nil {
			return err
		}
		if _, exists := u.recharge(request.RequestID); exists {
			return repositories.ErrDuplicateKey
		}
		request.ID = primitive.NewObjectID()
		u.staged[request.RequestID] = request.Clone()
		return nil
	})
}

// FindByRequestID finds a recharge request by its request id
func (r *RechargeRequestRepository) FindByRequestID(ctx context.Context, requestID string) (*models.RechargeRequest, error) {
	var (
		request *models.RechargeRequest
		found   bool
	)
	r.store.read(ctx, func(u *unit) {
		request, found = u.recharge(requestID)
	})
	if !found {
		return nil, repositories.ErrNotFound
	}
	return request, nil
}

// FindByStatus finds recharge requests in a status, oldest first
func (r *RechargeRequestRepository) FindByStatus(ctx context.Context, status models.RechargeStatus) ([]*models.RechargeRequest, error) {
	requests := r.filter(ctx, func(req *models.RechargeRequest) bool { return req.Status == status })
	sort.SliceStable(requests, func(i, j int) bool {
		if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].CreatedAt.Before(requests[j].CreatedAt)
		}
		return requests[i].RequestID < requests[j].RequestID
	})
	return requests, nil
}

// FindByAgent finds an agent's recharge requests, newest first
func (r *RechargeRequestRepository) FindByAgent(ctx context.Context, agentID primitive.ObjectID) ([]*models.RechargeRequest, error) {
	requests := r.filter(ctx, func(req *models.RechargeRequest) bool { return req.AgentAccountID == agentID })
	sort.SliceStable(requests, func(i, j int) bool {
		if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].CreatedAt.After(requests[j].CreatedAt)
		}
		return requests[i].RequestID > requests[j].RequestID
	})
	return requests, nil
}

// Transition moves a pending request to a terminal status
func (r *RechargeRequestRepository) Transition(ctx context.Context, requestID string, to models.RechargeStatus, processedBy primitive.ObjectID, at time.Time) (*models.RechargeRequest, error) {
	var updated *models.RechargeRequest
	err := r.store.write(ctx, func(u *unit) error {
		if err := u.lock(rechargeKey(requestID)); err != nil {
			return err
		}
		request, ok := u.recharge(requestID)
		if !ok {
			return repositories.ErrNotFound
		}
		if request.Status != models.RechargePending {
			return repositories.ErrConflict
		}
		request.Status = to
		request.ProcessedAt = &at
		request.ProcessedBy = &processedBy
		u.staged[requestID] = request
		updated = request.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *RechargeRequestRepository) filter(ctx context.Context, match func(*models.RechargeRequest) bool) []*models.RechargeRequest {
	requests := []*models.RechargeRequest{}
	r.store.read(ctx, func(u *unit) {
		for _, request := range u.allRecharges() {
			if match(request) {
				requests = append(requests, request)
			}
		}
	})
	return requests
}

func rechargeKey(requestID string) string { return "rr:" + requestID }
