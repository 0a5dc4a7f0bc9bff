package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/domain/notification"
	"github.com/hostdeck/hostdeck/internal/domain/shop"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
	"github.com/hostdeck/hostdeck/internal/pkg/metrics"
)

// maxPurchaseQuantity caps a single order. The bound keeps the cost and
// amount multiplications well inside int64 range; no legitimate order comes
// anywhere near it.
const maxPurchaseQuantity = 1_000_000

// ShopService implements shop.Service
type ShopService struct {
	users  ledger.Repository
	outbox notification.Repository
	table  *shop.PriceTable
	logger *logger.Logger
}

// NewShopService creates a new shop service
func NewShopService(users ledger.Repository, outbox notification.Repository, table *shop.PriceTable, log *logger.Logger) shop.Service {
	return &ShopService{
		users:  users,
		outbox: outbox,
		table:  table,
		logger: log,
	}
}

// Table returns the active price table.
func (s *ShopService) Table() *shop.PriceTable {
	return s.table
}

// Purchase validates and atomically commits a resource purchase. Validation
// runs in a fixed order so the caller always sees the first applicable
// rejection: unknown resource, bad quantity, disabled entry, insufficient
// coins, then the limit ceiling. The coin debit and limit raise land in one
// guarded statement; a concurrent ledger write triggers revalidation against
// the fresh balance, so the same coins can never be spent twice.
func (s *ShopService) Purchase(ctx context.Context, userID int64, resource string, quantity int64) (*shop.PurchaseResult, error) {
	key, err := ledger.ParseKey(resource)
	if err != nil {
		metrics.RecordPurchase(resource, "rejected")
		return nil, errors.InvalidResource(resource)
	}

	if quantity < 1 || quantity > maxPurchaseQuantity {
		metrics.RecordPurchase(resource, "rejected")
		return nil, errors.InvalidQuantity(quantity)
	}

	price, ok := s.table.Lookup(key)
	if !ok || !price.Enabled {
		metrics.RecordPurchase(resource, "rejected")
		return nil, errors.ResourceDisabled(resource)
	}

	cost := price.Cost * quantity
	amount := price.Amount * quantity

	result := &shop.PurchaseResult{
		Resource: key,
		Quantity: quantity,
		Amount:   amount,
		Cost:     cost,
		State:    shop.StateValidating,
	}

	u, err := mutateLedger(ctx, s.users, userID, func(u *ledger.User) error {
		if u.Coins < cost {
			return errors.InsufficientFunds(cost, u.Coins)
		}

		newTotal := u.Limits.Get(key) + amount
		if max := s.table.MaxLimit(key); newTotal > max {
			return errors.LimitExceeded(resource, newTotal, max)
		}

		result.State = shop.StateCommitting
		u.Coins -= cost
		u.Limits.Set(key, newTotal)
		return nil
	})
	if err != nil {
		if result.State == shop.StateValidating {
			result.State = shop.StateRejected
			metrics.RecordPurchase(resource, "rejected")
		} else {
			metrics.RecordPurchase(resource, "failed")
		}
		return nil, err
	}

	result.State = shop.StateCommitted
	result.Coins = u.Coins
	result.NewLimit = u.Limits.Get(key)

	metrics.RecordPurchase(resource, "committed")
	metrics.AddCoinsSpent(cost)

	s.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"resource": resource,
		"amount":   amount,
		"cost":     cost,
		"coins":    u.Coins,
	}).Info("Purchase committed")

	// The purchase is durable at this point. Notification is best effort:
	// an enqueue failure is reported on the result, never as an error.
	payload := notification.PurchasePayload{
		Username: u.Username,
		Resource: resource,
		Amount:   amount,
		Cost:     cost,
	}
	if enqueueEvent(ctx, s.outbox, s.logger, userID, notification.EventTypePurchase, payload) {
		result.State = shop.StateNotifyQueued
		result.NotificationQueued = true
	} else {
		result.State = shop.StateNotifyFailed
	}

	return result, nil
}

// enqueueEvent writes an outbox event after a ledger commit. Returns false
// when the enqueue failed; the caller's commit stands either way.
func enqueueEvent(ctx context.Context, outbox notification.Repository, log *logger.Logger, userID int64, eventType notification.EventType, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		log.ErrorWithErr(err, "Failed to encode notification payload")
		return false
	}

	now := time.Now()
	e := &notification.Event{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          eventType,
		Payload:       data,
		NextAttemptAt: now,
		CreatedAt:     now,
	}

	if err := outbox.Enqueue(ctx, e); err != nil {
		log.WithFields(map[string]interface{}{
			"user_id": userID,
			"type":    string(eventType),
		}).ErrorWithErr(err, "Failed to enqueue notification")
		return false
	}
	return true
}
