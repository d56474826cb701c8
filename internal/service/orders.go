package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/dulcehogar/internal/models"
	"github.com/Skotchmaster/dulcehogar/internal/repo"
	"github.com/Skotchmaster/dulcehogar/internal/transport"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events Publisher
}

// EnsureCustomers fails with ErrNoCustomers while the customer table is empty.
func (s *OrderService) EnsureCustomers(ctx context.Context) error {
	return ensureCustomers(ctx, s.Repo)
}

func ensureCustomers(ctx context.Context, r *repo.GormRepo) error {
	n, err := r.CountCustomers(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoCustomers
	}
	return nil
}

func checkOrder(ctx context.Context, tx *repo.GormRepo, in transport.OrderInput) (transport.OrderInput, error) {
	in.Date = strings.TrimSpace(in.Date)
	if in.CustomerID == 0 {
		return in, invalid("customer_id", "este campo es obligatorio")
	}
	ok, err := tx.CustomerExists(ctx, in.CustomerID)
	if err != nil {
		return in, err
	}
	if !ok {
		return in, invalid("customer_id", "cliente desconocido")
	}
	if err := checkLength("date", in.Date, 1, 20); err != nil {
		return in, err
	}
	return in, nil
}

func (s *OrderService) List(ctx context.Context, p transport.Page) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, p.Offset, p.Limit)
}

func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

// Create opens an order with a zero total.
func (s *OrderService) Create(ctx context.Context, in transport.OrderInput) (*models.Order, error) {
	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := ensureCustomers(ctx, tx); err != nil {
			return err
		}
		in, err := checkOrder(ctx, tx, in)
		if err != nil {
			return err
		}
		o := &models.Order{
			CustomerID: in.CustomerID,
			Date:       in.Date,
			Total:      0,
			Status:     models.OrderStatusOpen,
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicOrders, order.ID, map[string]any{
		"type":       "order_created",
		"orderID":    order.ID,
		"customerID": order.CustomerID,
		"total":      order.Total,
	})
	return order, nil
}

// Update changes customer and date only. Total and status are untouched.
func (s *OrderService) Update(ctx context.Context, id uint, in transport.OrderInput) (*models.Order, error) {
	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return notFound(err, "order")
		}
		in, err := checkOrder(ctx, tx, in)
		if err != nil {
			return err
		}
		o.CustomerID, o.Date = in.CustomerID, in.Date
		o.Customer = models.Customer{}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicOrders, order.ID, map[string]any{
		"type":       "order_updated",
		"orderID":    order.ID,
		"customerID": order.CustomerID,
	})
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return notFound(err, "order")
	}
	publish(ctx, s.Events, TopicOrders, id, map[string]any{
		"type":    "order_deleted",
		"orderID": id,
	})
	return nil
}

// SetStatus moves an open order to fulfilled or cancelled.
func (s *OrderService) SetStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	status = strings.TrimSpace(status)
	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return notFound(err, "order")
		}
		if !models.CanTransitionOrder(o.Status, status) {
			return invalid("status", fmt.Sprintf("no se puede pasar de %q a %q", o.Status, status))
		}
		o.Status = status
		o.Customer = models.Customer{}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicOrders, order.ID, map[string]any{
		"type":    "order_status_changed",
		"orderID": order.ID,
		"status":  order.Status,
	})
	return order, nil
}
