package transport

type CategoryInput struct {
	Name        string
	Description string
}

type ProductInput struct {
	Name       string
	Quantity   int
	Price      float64
	CategoryID *uint
}

type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type OrderInput struct {
	CustomerID uint
	Date       string
}

// UserInput.Password is optional on update; empty keeps the current hash.
type UserInput struct {
	Name     string
	Email    string
	Role     string
	Password string
}

// Page is the list window requested by a handler. Size 0 means every row.
type Page struct {
	Offset int
	Limit  int
}
