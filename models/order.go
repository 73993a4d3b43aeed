package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. Pending orders move forward through paid, shipped and
// delivered; canceled and refunded are the only exits from the happy path.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
	OrderStatusRefunded  = "refunded"
)

// Buyer types. Guests are not network members; a guest order may still carry
// a referring associate who earns a one-shot commission.
const (
	BuyerTypeGuest      = "guest"
	BuyerTypeRegistered = "registered"
	BuyerTypeAssociate  = "associate"
)

// OrderItem is a single purchased line.
type OrderItem struct {
	ProductID string  `bson:"productId" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
}

// Order is a purchase in the network. Money fields are fixed at the paid
// transition and never recomputed afterward.
type Order struct {
	ID                  string              `bson:"_id" json:"id"`
	CustomerID          *primitive.ObjectID `bson:"customerId,omitempty" json:"customerId,omitempty"`
	CustomerName        string              `bson:"customerName" json:"customerName"`
	BuyerType           string              `bson:"buyerType" json:"buyerType"`
	ReferrerAssociateID *primitive.ObjectID `bson:"referrerAssociateId,omitempty" json:"referrerAssociateId,omitempty"`
	Items               []OrderItem         `bson:"items" json:"items"`
	GrossSubtotal       float64             `bson:"grossSubtotal" json:"grossSubtotal"`
	DiscountRate        float64             `bson:"discountRate" json:"discountRate"`
	DiscountAmount      float64             `bson:"discountAmount" json:"discountAmount"`
	NetTotal            float64             `bson:"netTotal" json:"netTotal"`
	Status              string              `bson:"status" json:"status"`
	MonthKey            string              `bson:"monthKey" json:"monthKey"`

	ShippingType   string `bson:"shippingType,omitempty" json:"shippingType,omitempty"`
	TrackingNumber string `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	DeliveryPlace  string `bson:"deliveryPlace,omitempty" json:"deliveryPlace,omitempty"`
	DeliveryDate   string `bson:"deliveryDate,omitempty" json:"deliveryDate,omitempty"`
	RecipientName  string `bson:"recipientName,omitempty" json:"recipientName,omitempty"`
	Phone          string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address        string `bson:"address,omitempty" json:"address,omitempty"`
	PostalCode     string `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
	State          string `bson:"state,omitempty" json:"state,omitempty"`
	CancelReason   string `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	RefundReason   string `bson:"refundReason,omitempty" json:"refundReason,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCanceled, OrderStatusRefunded:
		return true
	}
	return false
}

// TerminalOrderStatus reports whether no further transitions are allowed
// from s. Delivered is terminal for forward transitions but can still be
// refunded.
func TerminalOrderStatus(s string) bool {
	return s == OrderStatusCanceled || s == OrderStatusRefunded
}

// CreateOrderRequest is the payload for order creation.
type CreateOrderRequest struct {
	CustomerID          string      `json:"customerId,omitempty"`
	CustomerName        string      `json:"customerName" validate:"required"`
	BuyerType           string      `json:"buyerType,omitempty"`
	ReferrerAssociateID string      `json:"referrerAssociateId,omitempty"`
	Items               []OrderItem `json:"items" validate:"required,min=1"`
	ShippingType        string      `json:"shippingType,omitempty"`
	RecipientName       string      `json:"recipientName,omitempty"`
	Phone               string      `json:"phone,omitempty"`
	Address             string      `json:"address" validate:"required"`
	PostalCode          string      `json:"postalCode" validate:"required"`
	State               string      `json:"state" validate:"required"`
}

// UpdateOrderStatusRequest is the payload for the status transition endpoint.
type UpdateOrderStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	ShippingType   string `json:"shippingType,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	DeliveryPlace  string `json:"deliveryPlace,omitempty"`
	DeliveryDate   string `json:"deliveryDate,omitempty"`
}
