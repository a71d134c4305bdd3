package order

import (
	"context"

	"shophub-be/internal/auth"
	"shophub-be/internal/events"
	"shophub-be/internal/logger"
	"shophub-be/internal/metrics"
	"shophub-be/internal/payment"
	"shophub-be/internal/product"

	"go.uber.org/zap"
)

type Service interface {
	Quote(ctx context.Context, items []CartItem) (*Quote, error)
	PlaceOrder(ctx context.Context, buyer auth.Principal, input PlaceOrderInput) (*Order, error)
	GetOrder(ctx context.Context, actor auth.Principal, id string) (*Order, error)
	ListForBuyer(ctx context.Context, buyerID string) ([]*Order, error)
	ListForSeller(ctx context.Context, sellerID string) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, actor auth.Principal, id string, status Status) (*Order, error)
}

// ProductCatalog is the read side of the product store used to snapshot
// line items.
type ProductCatalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

type service struct {
	repo      Repository
	catalog   ProductCatalog
	gateway   payment.Gateway
	publisher events.Publisher
	policy    PricingPolicy
	metrics   *metrics.Registry
}

func NewService(
	repo Repository,
	catalog ProductCatalog,
	gateway payment.Gateway,
	publisher events.Publisher,
	policy PricingPolicy,
	m *metrics.Registry,
) Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &service{
		repo:      repo,
		catalog:   catalog,
		gateway:   gateway,
		publisher: publisher,
		policy:    policy,
		metrics:   m,
	}
}

// maxLineQuantity bounds a single line item after duplicates are merged.
// It keeps quantities inside the order_items INTEGER column.
const maxLineQuantity = 10000

func validateItems(items []CartItem) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for _, it := range items {
		if it.ProductID == "" {
			return ErrNoItems
		}
		if it.Quantity < 1 || it.Quantity > maxLineQuantity {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// snapshot resolves every cart entry against the live catalog. Repeated
// product ids are merged into one line item.
func (s *service) snapshot(ctx context.Context, items []CartItem) ([]LineItem, error) {
	lines := []LineItem{}
	index := map[string]int{}

	for _, it := range items {
		if i, ok := index[it.ProductID]; ok {
			lines[i].Quantity += it.Quantity
			if lines[i].Quantity > maxLineQuantity {
				return nil, ErrInvalidQuantity
			}
			continue
		}

		p, err := s.catalog.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, ErrProductUnavailable
		}

		index[it.ProductID] = len(lines)
		lines = append(lines, LineItem{
			ProductID: p.ID,
			SellerID:  p.SellerID,
			Name:      p.Name,
			Price:     p.UnitPrice(),
			Quantity:  it.Quantity,
			Image:     p.PrimaryImage(),
		})
	}

	return lines, nil
}

func (s *service) Quote(ctx context.Context, items []CartItem) (*Quote, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	lines, err := s.snapshot(ctx, items)
	if err != nil {
		return nil, err
	}

	return &Quote{Items: lines, Pricing: PriceOrder(lines, s.policy)}, nil
}

func (s *service) PlaceOrder(ctx context.Context, buyer auth.Principal, input PlaceOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.String("buyer_id", buyer.UserID),
	)

	if err := validateItems(input.Items); err != nil {
		return nil, err
	}
	if !input.ShippingAddress.complete() {
		return nil, ErrIncompleteAddress
	}
	if !input.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	o := &Order{
		BuyerID:         buyer.UserID,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		OrderStatus:     StatusPending,
		PaymentStatus:   PaymentStatusPending,
	}

	if input.PaymentMethod == PaymentOnline {
		proof := input.PaymentInfo
		if proof == nil || !proof.Complete() {
			return nil, ErrPaymentProofRequired
		}
		if !s.gateway.VerifySignature(proof.OrderID, proof.PaymentID, proof.Signature) {
			log.Warn("rejected order with invalid payment signature",
				zap.String("razorpay_order_id", proof.OrderID),
				zap.String("razorpay_payment_id", proof.PaymentID),
			)
			return nil, ErrInvalidPaymentSignature
		}
		o.PaymentStatus = PaymentStatusCompleted
		o.PaymentInfo = proof
	}

	lines, err := s.snapshot(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	o.Items = lines
	o.Pricing = PriceOrder(lines, s.policy)

	if err := s.repo.Create(ctx, o); err != nil {
		if o.PaymentInfo != nil {
			// A captured payment without an order needs manual reconciliation.
			log.Error("order not persisted after verified payment",
				zap.Error(err),
				zap.String("razorpay_payment_id", o.PaymentInfo.PaymentID),
			)
		}
		return nil, err
	}

	s.metrics.Inc(metrics.OrdersPlaced)
	log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.String("total", o.TotalPrice.StringFixed(moneyPlaces)),
	)

	err = s.publisher.Publish(ctx, events.TopicOrderPlaced, o.ID, events.OrderPlaced{
		OrderID:       o.ID,
		BuyerID:       o.BuyerID,
		SellerIDs:     o.SellerIDs(),
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		TotalPrice:    o.TotalPrice.StringFixed(moneyPlaces),
		PlacedAt:      o.CreatedAt,
	})
	if err != nil {
		log.Error("failed to publish order placed event", zap.Error(err), zap.String("order_id", o.ID))
	}

	return o, nil
}

func canView(actor auth.Principal, o *Order) bool {
	return actor.IsAdmin() || o.BuyerID == actor.UserID || o.HasSeller(actor.UserID)
}

func (s *service) GetOrder(ctx context.Context, actor auth.Principal, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, o) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID string) ([]*Order, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}

func (s *service) ListForSeller(ctx context.Context, sellerID string) ([]*Order, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

func (s *service) UpdateOrderStatus(ctx context.Context, actor auth.Principal, id string, status Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.String("order_id", id),
		zap.String("actor_id", actor.UserID),
	)

	if !status.Valid() {
		return nil, ErrInvalidStatusTransition
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !current.HasSeller(actor.UserID) {
		log.Warn("status update rejected: actor does not sell in this order")
		return nil, ErrForbidden
	}
	if !CanTransition(current.OrderStatus, status) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.OrderStatus, status)
	if err != nil {
		return nil, err
	}

	if status == StatusCancelled {
		s.metrics.Inc(metrics.OrdersCancelled)
	}
	log.Info("order status updated",
		zap.String("from", string(current.OrderStatus)),
		zap.String("to", string(status)),
	)

	err = s.publisher.Publish(ctx, events.TopicOrderStatusUpdated, id, events.OrderStatusUpdated{
		OrderID:   id,
		From:      string(current.OrderStatus),
		To:        string(status),
		ActorID:   actor.UserID,
		UpdatedAt: updated.UpdatedAt,
	})
	if err != nil {
		log.Error("failed to publish status event", zap.Error(err))
	}

	return updated, nil
}
