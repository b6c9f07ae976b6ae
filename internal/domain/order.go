package domain

import "time"

// OrderStatus enumerates recharge order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusSuccess OrderStatus = "success"
)

// Order represents a credit recharge order awaiting payment confirmation.
type Order struct {
	ID        string
	UserID    string
	PackageID string
	Amount    float64
	Credits   int
	Subject   string
	Status    OrderStatus
	TradeNo   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RechargePackage is an offered credit bundle.
type RechargePackage struct {
	ID      string
	Credits int
	Price   float64
	Label   string
}

// RechargePackages lists the purchasable bundles.
var RechargePackages = []RechargePackage{
	{ID: "pkg-1000", Credits: 1000, Price: 10, Label: "Starter"},
	{ID: "pkg-5000", Credits: 5000, Price: 45, Label: "Professional"},
	{ID: "pkg-10000", Credits: 10000, Price: 80, Label: "Enterprise"},
}

// PackageByID returns the recharge package with the given id, or nil.
func PackageByID(id string) *RechargePackage {
	for i := range RechargePackages {
		if RechargePackages[i].ID == id {
			return &RechargePackages[i]
		}
	}
	return nil
}
