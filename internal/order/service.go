package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	xerrors "ms-marketplace/internal/xpkg/errors"
)

type DBLayer interface {
	CreateOrder(order models.Order, items []models.OrderItem) error
	GetOrderByID(id string) (*models.Order, error)
	GetOrderItems(orderID string) ([]models.OrderItem, error)
	GetOrdersByUser(userID string) ([]models.Order, error)
	UpdateStatus(order *models.Order) error
	SetConfirmation(orderID string, role models.Role, proofURL string, at time.Time) error
	GetConfirmationFlags(orderID string) (buyer bool, seller bool, err error)
	CompleteOrder(orderID string, at time.Time) error
	CancelOrder(orderID, actor, reason string, at time.Time) error
	RateOrder(orderID string, stars int, comment string, at time.Time) error
	CreateNotification(n models.Notification) error
	IncrementSellerStats(sellerID string, orderTotal float64) error
	AddSellerRating(sellerID string, stars int) error
}

type InventoryAdjuster interface {
	GetProduct(productID string) (*models.Product, error)
	CheckAvailability(items []models.OrderItem) error
	Reserve(orderID string, items []models.OrderItem) error
	Release(orderID string, items []models.OrderItem) error
}

// Broadcaster fans events out to live connections. Best-effort only: the
// ledger never waits on or fails because of it.
type Broadcaster interface {
	NotifyUser(userID string, event models.RealtimeEvent) bool
	BroadcastToRoom(orderID string, event models.RealtimeEvent)
}

type KafkaPublisher interface {
	PublishOrderCreated(o models.OrderWithItems) error
	PublishOrderUpdated(o models.Order) error
	PublishOrderCancelled(o models.Order) error
	PublishOrderCompleted(o models.Order) error
}

// OrderNumberSource issues the human-readable, date-scoped sequential
// order numbers.
type OrderNumberSource interface {
	NextOrderNumber() (string, error)
}

// OrderService owns the order aggregate and its status transitions:
// pending -> confirmed -> ready -> completed, with cancellation allowed out
// of pending and confirmed only. Completed and cancelled are terminal.
type OrderService struct {
	DB        DBLayer
	Inventory InventoryAdjuster
	Hub       Broadcaster
	Kafka     KafkaPublisher
	Sequence  OrderNumberSource
	logger    *logger.Logger
}

func NewOrderService(db DBLayer, inv InventoryAdjuster, hub Broadcaster, kafka KafkaPublisher, seq OrderNumberSource, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Inventory: inv, Hub: hub, Kafka: kafka, Sequence: seq, logger: log}
}

// ---------------- CREATE ----------------

// CreateOrder validates the request, re-checks stock at commit time, writes
// the order plus item snapshots, and then adjusts inventory item by item.
// Side effects after the commit (inventory sync, notification, broadcast,
// Kafka) are attempt-and-log: they never fail the creation itself.
func (s *OrderService) CreateOrder(buyerID, buyerName string, req models.CreateOrderRequest) (*models.OrderWithItems, error) {
	if req.SellerID == "" {
		return nil, &xerrors.ValidationError{Field: "seller_id", Reason: "must not be empty"}
	}
	if buyerID == req.SellerID {
		return nil, &xerrors.ValidationError{Field: "seller_id", Reason: "buyer cannot order from themselves"}
	}
	if len(req.Items) == 0 {
		return nil, &xerrors.ValidationError{Field: "items", Reason: "order needs at least one item"}
	}

	orderID := uuid.NewString()
	now := time.Now().UTC()

	// Snapshot product details into the items so later product edits never
	// change this order retroactively.
	items := make([]models.OrderItem, 0, len(req.Items))
	var subtotal float64
	for _, reqItem := range req.Items {
		if reqItem.Quantity <= 0 {
			return nil, &xerrors.ValidationError{Field: "quantity", Reason: "must be positive"}
		}
		product, err := s.Inventory.GetProduct(reqItem.ProductID)
		if err != nil {
			return nil, err
		}
		if product.SellerID != req.SellerID {
			return nil, &xerrors.ValidationError{Field: "items", Reason: fmt.Sprintf("product %s does not belong to seller %s", product.ProductID, req.SellerID)}
		}
		lineTotal := product.UnitPrice * float64(reqItem.Quantity)
		subtotal += lineTotal
		items = append(items, models.OrderItem{
			ItemID:      uuid.NewString(),
			OrderID:     orderID,
			ProductID:   product.ProductID,
			ProductName: product.Name,
			Category:    product.Category,
			UnitPrice:   product.UnitPrice,
			UnitType:    product.UnitType,
			Quantity:    reqItem.Quantity,
			LineTotal:   lineTotal,
		})
	}

	// Commit-time stock re-check: an insufficient item aborts the whole
	// creation before anything is persisted.
	if err := s.Inventory.CheckAvailability(items); err != nil {
		return nil, err
	}

	orderNumber, err := s.Sequence.NextOrderNumber()
	if err != nil {
		return nil, fmt.Errorf("failed to issue order number: %w", err)
	}

	order := models.Order{
		OrderID:        orderID,
		OrderNumber:    orderNumber,
		BuyerID:        buyerID,
		BuyerName:      buyerName,
		SellerID:       req.SellerID,
		Status:         models.StatusPending,
		DeliveryOption: req.DeliveryOption,
		Subtotal:       subtotal,
		Total:          subtotal,
		CreatedAt:      now,
	}

	if err := s.DB.CreateOrder(order, items); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.logger.LogOrder("CREATE", orderID, fmt.Sprintf("order %s created for seller %s (%d items)", orderNumber, req.SellerID, len(items)))

	// Sequential per-item decrement. A failure here leaves the order in
	// place and earlier items already decremented.
	s.attempt("inventory reserve", func() error { return s.Inventory.Reserve(orderID, items) })

	full := models.OrderWithItems{Order: order, Items: items}
	s.notify(order.SellerID, "New order received",
		fmt.Sprintf("%s placed order %s (%.2f)", buyerName, orderNumber, order.Total),
		"order_new", orderID)
	s.emitToUser(order.SellerID, models.NewOrderNewEvent(full))
	s.attempt("kafka order created", func() error { return s.Kafka.PublishOrderCreated(full) })

	return &full, nil
}

// ---------------- READ ----------------

func (s *OrderService) GetOrder(orderID, actorID string) (*models.OrderWithItems, error) {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if _, ok := order.RoleOf(actorID); !ok {
		return nil, xerrors.ErrNotAParty
	}

	items, err := s.DB.GetOrderItems(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return &models.OrderWithItems{Order: *order, Items: items}, nil
}

func (s *OrderService) ListOrders(actorID string) ([]models.Order, error) {
	return s.DB.GetOrdersByUser(actorID)
}

// VerifyParty is the access check used by the real-time gateway before a
// room join is admitted.
func (s *OrderService) VerifyParty(orderID, userID string) error {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return err
	}
	if _, ok := order.RoleOf(userID); !ok {
		return xerrors.ErrNotAParty
	}
	return nil
}

// ---------------- STATUS ----------------

// UpdateStatus drives the seller-only transitions: pending -> confirmed and
// confirmed -> ready. Everything else is an invalid transition.
func (s *OrderService) UpdateStatus(orderID, actorID string, target models.OrderStatus) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	role, ok := order.RoleOf(actorID)
	if !ok {
		return nil, xerrors.ErrNotAParty
	}

	invalid := &xerrors.InvalidTransitionError{
		OrderID: orderID,
		From:    string(order.Status),
		Target:  string(target),
		Actor:   string(role),
	}
	if role != models.RoleSeller {
		return nil, invalid
	}

	now := time.Now().UTC()
	switch {
	case order.Status == models.StatusPending && target == models.StatusConfirmed:
		order.Status = models.StatusConfirmed
		order.ConfirmedAt = now
	case order.Status == models.StatusConfirmed && target == models.StatusReady:
		order.Status = models.StatusReady
		order.ReadyAt = now
	default:
		return nil, invalid
	}

	if err := s.DB.UpdateStatus(order); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	s.logger.LogOrder("STATUS", orderID, fmt.Sprintf("seller moved order to %s", order.Status))

	title := "Order confirmed"
	message := fmt.Sprintf("The seller confirmed order %s", order.OrderNumber)
	if order.Status == models.StatusReady {
		title = "Order ready"
		message = fmt.Sprintf("Order %s is ready for handover", order.OrderNumber)
	}
	s.notify(order.BuyerID, title, message, "order_status", orderID)
	s.emitOrderUpdated(*order)
	s.attempt("kafka order updated", func() error { return s.Kafka.PublishOrderUpdated(*order) })

	return order, nil
}

// ---------------- CONFIRM ----------------

// ConfirmCompletion records one party's completion confirmation. After its
// own write it re-reads both flags fresh; when both are set it advances the
// order to completed, settles payment, and bumps the seller's lifetime
// stats. Re-confirming the same role is rejected, not silently absorbed.
func (s *OrderService) ConfirmCompletion(orderID, actorID, proofURL string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	role, ok := order.RoleOf(actorID)
	if !ok {
		return nil, xerrors.ErrNotAParty
	}
	if order.Status != models.StatusReady {
		return nil, &xerrors.InvalidTransitionError{
			OrderID: orderID,
			From:    string(order.Status),
			Target:  string(models.StatusCompleted),
			Actor:   string(role),
		}
	}

	alreadyConfirmed := (role == models.RoleBuyer && order.BuyerConfirmed) ||
		(role == models.RoleSeller && order.SellerConfirmed)
	if alreadyConfirmed {
		s.logger.Error("ORDER", fmt.Sprintf("duplicate %s confirmation on order %s", role, orderID))
		return nil, xerrors.ErrDuplicateConfirmation
	}

	now := time.Now().UTC()
	if err := s.DB.SetConfirmation(orderID, role, proofURL, now); err != nil {
		return nil, fmt.Errorf("failed to record confirmation: %w", err)
	}

	// Fresh re-read after our own write. A value cached before the write
	// would make the second confirmer miss the completion.
	buyerConfirmed, sellerConfirmed, err := s.DB.GetConfirmationFlags(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read confirmation flags: %w", err)
	}

	if buyerConfirmed && sellerConfirmed {
		if err := s.DB.CompleteOrder(orderID, now); err != nil {
			return nil, fmt.Errorf("failed to complete order: %w", err)
		}
		s.logger.LogOrder("COMPLETE", orderID, "both parties confirmed, order completed")
		s.attempt("seller stats increment", func() error {
			return s.DB.IncrementSellerStats(order.SellerID, order.Total)
		})
	}

	updated, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	counterparty := order.CounterpartyOf(actorID)
	if updated.Status == models.StatusCompleted {
		s.notify(counterparty, "Order completed",
			fmt.Sprintf("Order %s is complete", order.OrderNumber), "order_completed", orderID)
		s.attempt("kafka order completed", func() error { return s.Kafka.PublishOrderCompleted(*updated) })
	} else {
		s.notify(counterparty, "Completion confirmed",
			fmt.Sprintf("The %s confirmed order %s, awaiting your confirmation", role, order.OrderNumber),
			"order_confirmation", orderID)
		s.attempt("kafka order updated", func() error { return s.Kafka.PublishOrderUpdated(*updated) })
	}
	s.emitOrderUpdated(*updated)

	return updated, nil
}

// ---------------- CANCEL ----------------

// CancelOrder is permitted to either party from pending or confirmed, with
// a non-empty reason. Every item's stock is restored via the adjuster.
func (s *OrderService) CancelOrder(orderID, actorID, reason string) (*models.Order, error) {
	if reason == "" {
		return nil, xerrors.ErrReasonRequired
	}

	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	role, ok := order.RoleOf(actorID)
	if !ok {
		return nil, xerrors.ErrNotAParty
	}
	if order.Status != models.StatusPending && order.Status != models.StatusConfirmed {
		return nil, &xerrors.InvalidTransitionError{
			OrderID: orderID,
			From:    string(order.Status),
			Target:  string(models.StatusCancelled),
			Actor:   string(role),
		}
	}

	items, err := s.DB.GetOrderItems(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	now := time.Now().UTC()
	if err := s.DB.CancelOrder(orderID, string(role), reason, now); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	s.logger.LogOrder("CANCEL", orderID, fmt.Sprintf("%s cancelled: %s", role, reason))

	// Restore stock item by item; failures are logged, never fatal.
	s.attempt("inventory release", func() error { return s.Inventory.Release(orderID, items) })

	order.Status = models.StatusCancelled
	order.CancelReason = reason
	order.CancelledBy = string(role)
	order.CancelledAt = now

	s.notify(order.CounterpartyOf(actorID), "Order cancelled",
		fmt.Sprintf("Order %s was cancelled by the %s: %s", order.OrderNumber, role, reason),
		"order_cancelled", orderID)
	s.emitToUser(order.CounterpartyOf(actorID), models.NewOrderCancelledEvent(*order))
	s.Hub.BroadcastToRoom(orderID, models.NewOrderCancelledEvent(*order))
	s.attempt("kafka order cancelled", func() error { return s.Kafka.PublishOrderCancelled(*order) })

	return order, nil
}

// ---------------- RATE ----------------

// RateOrder lets the buyer leave a 1-5 star rating on a completed order,
// once. The seller's aggregate rating moves with it.
func (s *OrderService) RateOrder(orderID, actorID string, stars int, comment string) (*models.Order, error) {
	if stars < 1 || stars > 5 {
		return nil, &xerrors.ValidationError{Field: "stars", Reason: "must be between 1 and 5"}
	}

	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	role, ok := order.RoleOf(actorID)
	if !ok {
		return nil, xerrors.ErrNotAParty
	}
	if role != models.RoleBuyer {
		return nil, xerrors.ErrNotAParty
	}
	if order.Status != models.StatusCompleted {
		return nil, &xerrors.InvalidTransitionError{
			OrderID: orderID,
			From:    string(order.Status),
			Target:  "rated",
			Actor:   string(role),
		}
	}
	if order.Rating != 0 {
		return nil, xerrors.ErrAlreadyRated
	}

	now := time.Now().UTC()
	if err := s.DB.RateOrder(orderID, stars, comment, now); err != nil {
		return nil, fmt.Errorf("failed to rate order: %w", err)
	}
	s.attempt("seller rating update", func() error { return s.DB.AddSellerRating(order.SellerID, stars) })
	s.logger.LogOrder("RATE", orderID, fmt.Sprintf("buyer rated %d/5", stars))

	s.notify(order.SellerID, "New rating",
		fmt.Sprintf("Order %s was rated %d/5", order.OrderNumber, stars), "order_rated", orderID)

	order.Rating = stars
	order.RatingComment = comment
	order.RatedAt = now
	return order, nil
}

// ---------------- SIDE EFFECTS ----------------

// attempt runs one fire-and-forget side effect and suppresses its failure.
// User-facing success of the primary transition never guarantees that every
// side effect landed.
func (s *OrderService) attempt(what string, fn func() error) {
	if err := fn(); err != nil {
		var warn *xerrors.PartialAdjustmentWarning
		if errors.As(err, &warn) {
			s.logger.Warn("INVENTORY", warn.Error())
			return
		}
		s.logger.Warn("SIDE_EFFECT", fmt.Sprintf("%s failed: %v", what, err))
	}
}

// notify persists the durable notification row and pushes the matching
// real-time event. The row is written regardless of delivery.
func (s *OrderService) notify(userID, title, message, ntype, referenceID string) {
	n := models.Notification{
		NotificationID: uuid.NewString(),
		UserID:         userID,
		Title:          title,
		Message:        message,
		Type:           ntype,
		ReferenceID:    referenceID,
		CreatedAt:      time.Now().UTC(),
	}
	s.attempt("notification persist", func() error { return s.DB.CreateNotification(n) })
	s.emitToUser(userID, models.NewNotificationEvent(n))
}

func (s *OrderService) emitToUser(userID string, event models.RealtimeEvent) {
	if !s.Hub.NotifyUser(userID, event) {
		s.logger.Debug("REALTIME", fmt.Sprintf("%v: %s event for user %s", xerrors.ErrDeliveryDropped, event.Kind, userID))
	}
}

func (s *OrderService) emitOrderUpdated(order models.Order) {
	event := models.NewOrderUpdatedEvent(order)
	s.emitToUser(order.BuyerID, event)
	s.emitToUser(order.SellerID, event)
	s.Hub.BroadcastToRoom(order.OrderID, event)
}
