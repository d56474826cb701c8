package models

import (
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

const (
	OrderStatusOpen      = "open"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusCancelled = "cancelled"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"          json:"id"`
	Name         string    `gorm:"size:120;not null"                 json:"name"`
	Email        string    `gorm:"size:120;uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"size:120;not null"                 json:"-"`
	Role         string    `gorm:"size:50;not null;default:employee" json:"role"`
	CreatedAt    time.Time `                                         json:"created_at"`
	UpdatedAt    time.Time `                                         json:"updated_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:200"                      json:"description"`
}

type Product struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"                       json:"id"`
	Name       string    `gorm:"size:120;uniqueIndex;not null"                  json:"name"`
	Quantity   int       `gorm:"not null;default:0;check:quantity >= 0"         json:"quantity"`
	Price      float64   `gorm:"not null;default:0;check:price >= 0"            json:"price"`
	CategoryID *uint     `gorm:"index"                                          json:"category_id"`
	Category   *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
}

func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

type Customer struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name    string `gorm:"size:120;not null"             json:"name"`
	Email   string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Phone   string `gorm:"size:20"                       json:"phone"`
	Address string `gorm:"size:200"                      json:"address"`
}

type Order struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"                       json:"id"`
	CustomerID uint      `gorm:"index;not null"                                 json:"customer_id"`
	Customer   Customer  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"customer"`
	Date       string    `gorm:"size:20"                                        json:"date"`
	Total      float64   `gorm:"not null;default:0"                             json:"total"`
	Status     string    `gorm:"size:20;not null;default:open"                  json:"status"`
	CreatedAt  time.Time `                                                      json:"created_at"`
}

// CanTransitionOrder reports whether an order may move from one status to another.
// Only open orders move, and only to fulfilled or cancelled.
func CanTransitionOrder(from, to string) bool {
	if from != OrderStatusOpen {
		return false
	}
	return to == OrderStatusFulfilled || to == OrderStatusCancelled
}

type Session struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint   `gorm:"index;not null"     json:"user_id"`
	Name      string `gorm:"size:120;not null"  json:"name"`
	Role      string `gorm:"size:50;not null"   json:"role"`
	ExpiresAt int64  `gorm:"not null"           json:"expires_at"`
	Revoked   bool   `gorm:"default:false"      json:"revoked"`
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{&User{}, &Category{}, &Product{}, &Customer{}, &Order{}, &Session{}}
}
