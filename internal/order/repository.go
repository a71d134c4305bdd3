package order

import (
	"context"
	"database/sql"
	"errors"

	"shophub-be/internal/apperr"
	"shophub-be/internal/db"
	"shophub-be/internal/logger"
	"shophub-be/internal/payment"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// Create inserts the order and its items and decrements stock in one
	// transaction. It fills in ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*Order, error)

	// UpdateStatus moves the order from -> to only if it is still in from.
	// Cancelling returns the reserved stock.
	UpdateStatus(ctx context.Context, id string, from, to Status) (*Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const paymentIDConstraint = "orders_razorpay_payment_id_key"

const orderColumns = `o.id, o.user_id,
	o.shipping_street, o.shipping_city, o.shipping_state,
	o.shipping_zip_code, o.shipping_country, o.shipping_phone,
	o.payment_method, o.items_price, o.shipping_price, o.tax_price, o.total_price,
	o.order_status, o.payment_status,
	o.razorpay_order_id, o.razorpay_payment_id, o.razorpay_signature,
	o.created_at, o.updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var (
		o         Order
		remoteID  sql.NullString
		paymentID sql.NullString
		signature sql.NullString
	)

	err := row.Scan(
		&o.ID, &o.BuyerID,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.ZipCode, &o.ShippingAddress.Country, &o.ShippingAddress.Phone,
		&o.PaymentMethod, &o.ItemsPrice, &o.ShippingPrice, &o.TaxPrice, &o.TotalPrice,
		&o.OrderStatus, &o.PaymentStatus,
		&remoteID, &paymentID, &signature,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paymentID.Valid {
		o.PaymentInfo = &payment.Proof{
			OrderID:   remoteID.String,
			PaymentID: paymentID.String,
			Signature: signature.String,
		}
	}
	o.Items = []LineItem{}

	return &o, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("buyer_id", o.BuyerID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("failed to create order", err)
	}
	defer tx.Rollback()

	// ---------- ORDER ----------
	var proof payment.Proof
	if o.PaymentInfo != nil {
		proof = *o.PaymentInfo
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id,
			shipping_street, shipping_city, shipping_state,
			shipping_zip_code, shipping_country, shipping_phone,
			payment_method, items_price, shipping_price, tax_price, total_price,
			order_status, payment_status,
			razorpay_order_id, razorpay_payment_id, razorpay_signature
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING id, created_at, updated_at
	`,
		o.BuyerID,
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State,
		o.ShippingAddress.ZipCode, o.ShippingAddress.Country, o.ShippingAddress.Phone,
		o.PaymentMethod, o.ItemsPrice, o.ShippingPrice, o.TaxPrice, o.TotalPrice,
		o.OrderStatus, o.PaymentStatus,
		nullable(proof.OrderID), nullable(proof.PaymentID), nullable(proof.Signature),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, paymentIDConstraint) {
			return ErrPaymentAlreadyUsed
		}
		log.Error("failed to insert order", zap.Error(err))
		return apperr.Persistence("failed to create order", err)
	}

	// ---------- ITEMS + STOCK ----------
	for _, it := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, product_id, seller_id, name, price, quantity, image
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, o.ID, it.ProductID, it.SellerID, it.Name, it.Price, it.Quantity, it.Image)
		if err != nil {
			log.Error("failed to insert order item", zap.Error(err), zap.String("product_id", it.ProductID))
			return apperr.Persistence("failed to create order", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1, updated_at = NOW()
			WHERE id = $2 AND stock >= $1
		`, it.Quantity, it.ProductID)
		if err != nil {
			log.Error("failed to decrement stock", zap.Error(err), zap.String("product_id", it.ProductID))
			return apperr.Persistence("failed to create order", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperr.Persistence("failed to create order", err)
		}
		if n == 0 {
			log.Warn("insufficient stock", zap.String("product_id", it.ProductID), zap.Int("quantity", it.Quantity))
			return ErrInsufficientStock
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order", zap.Error(err))
		return apperr.Persistence("failed to create order", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetByID"),
		zap.String("order_id", id),
	)

	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to load order", zap.Error(err))
		return nil, apperr.Persistence("failed to load order", err)
	}

	if err := r.loadItems(ctx, []*Order{o}); err != nil {
		log.Error("failed to load order items", zap.Error(err))
		return nil, apperr.Persistence("failed to load order", err)
	}

	return o, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID string) ([]*Order, error) {
	return r.list(ctx, "ListByBuyer", `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`, buyerID)
}

func (r *repository) ListBySeller(ctx context.Context, sellerID string) ([]*Order, error) {
	return r.list(ctx, "ListBySeller", `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE EXISTS (
			SELECT 1 FROM order_items oi
			WHERE oi.order_id = o.id AND oi.seller_id = $1
		)
		ORDER BY o.created_at DESC
	`, sellerID)
}

func (r *repository) list(ctx context.Context, method, query string, arg string) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", method),
	)

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, apperr.Persistence("failed to list orders", err)
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order", zap.Error(err))
			return nil, apperr.Persistence("failed to list orders", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("failed to list orders", err)
	}
	rows.Close()

	if err := r.loadItems(ctx, orders); err != nil {
		log.Error("failed to load order items", zap.Error(err))
		return nil, apperr.Persistence("failed to list orders", err)
	}

	return orders, nil
}

// loadItems fills Items for every order with a single query.
func (r *repository) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	byID := make(map[string]*Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, seller_id, name, price, quantity, image
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			it      LineItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.SellerID, &it.Name, &it.Price, &it.Quantity, &it.Image); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Persistence("failed to update order", err)
	}
	defer tx.Rollback()

	o, err := scanOrder(tx.QueryRowContext(ctx, `
		UPDATE orders AS o
		SET order_status = $1, updated_at = NOW()
		WHERE o.id = $2 AND o.order_status = $3
		RETURNING `+orderColumns,
		to, id, from,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return nil, apperr.Persistence("failed to update order", err)
	}

	if to == StatusCancelled {
		_, err = tx.ExecContext(ctx, `
			UPDATE products p
			SET stock = p.stock + oi.quantity, updated_at = NOW()
			FROM order_items oi
			WHERE oi.order_id = $1 AND oi.product_id = p.id
		`, id)
		if err != nil {
			log.Error("failed to restock cancelled order", zap.Error(err))
			return nil, apperr.Persistence("failed to update order", err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit status update", zap.Error(err))
		return nil, apperr.Persistence("failed to update order", err)
	}

	if err := r.loadItems(ctx, []*Order{o}); err != nil {
		log.Error("failed to load order items", zap.Error(err))
		return nil, apperr.Persistence("failed to load order", err)
	}

	return o, nil
}
