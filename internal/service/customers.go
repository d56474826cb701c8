package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/dulcehogar/internal/models"
	"github.com/Skotchmaster/dulcehogar/internal/repo"
	"github.com/Skotchmaster/dulcehogar/internal/transport"
)

type CustomerService struct {
	Repo   *repo.GormRepo
	Events Publisher
}

func cleanCustomer(in transport.CustomerInput) (transport.CustomerInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	if err := checkLength("name", in.Name, 2, 120); err != nil {
		return in, err
	}
	if err := checkEmail("email", in.Email); err != nil {
		return in, err
	}
	if err := checkMax("phone", in.Phone, 20); err != nil {
		return in, err
	}
	if err := checkMax("address", in.Address, 200); err != nil {
		return in, err
	}
	return in, nil
}

func (s *CustomerService) List(ctx context.Context, p transport.Page) (int64, []models.Customer, error) {
	return s.Repo.ListCustomers(ctx, p.Offset, p.Limit)
}

func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	c, err := s.Repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, notFound(err, "customer")
	}
	return c, nil
}

func (s *CustomerService) Create(ctx context.Context, in transport.CustomerInput) (*models.Customer, error) {
	in, err := cleanCustomer(in)
	if err != nil {
		return nil, err
	}
	cust := &models.Customer{Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address}
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		taken, err := tx.CustomerEmailTaken(ctx, in.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
		}
		return duplicate(tx.CreateCustomer(ctx, cust), ErrDuplicateEmail, in.Email)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicOrders, cust.ID, map[string]any{
		"type":       "customer_created",
		"customerID": cust.ID,
	})
	return cust, nil
}

func (s *CustomerService) Update(ctx context.Context, id uint, in transport.CustomerInput) (*models.Customer, error) {
	in, err := cleanCustomer(in)
	if err != nil {
		return nil, err
	}
	var cust *models.Customer
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		c, err := tx.GetCustomer(ctx, id)
		if err != nil {
			return notFound(err, "customer")
		}
		taken, err := tx.CustomerEmailTaken(ctx, in.Email, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
		}
		c.Name, c.Email, c.Phone, c.Address = in.Name, in.Email, in.Phone, in.Address
		if err := tx.SaveCustomer(ctx, c); err != nil {
			return duplicate(err, ErrDuplicateEmail, in.Email)
		}
		cust = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicOrders, cust.ID, map[string]any{
		"type":       "customer_updated",
		"customerID": cust.ID,
	})
	return cust, nil
}

// Delete refuses customers that still have orders.
func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetCustomer(ctx, id); err != nil {
			return notFound(err, "customer")
		}
		n, err := tx.CountOrdersForCustomer(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: customer has %d orders", ErrInUse, n)
		}
		return notFound(tx.DeleteCustomer(ctx, id), "customer")
	})
	if err != nil {
		return err
	}

	publish(ctx, s.Events, TopicOrders, id, map[string]any{
		"type":       "customer_deleted",
		"customerID": id,
	})
	return nil
}
