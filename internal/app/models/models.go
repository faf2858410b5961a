package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles. A lessee becomes a lessor only through identity verification.
type Role string

const (
	RoleLessee Role = "LESSEE"
	RoleLessor Role = "LESSOR"
	RoleAdmin  Role = "ADMIN"
)

// Paid plans. "free" means no entitlement row is required.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanPremium  Plan = "premium"
	PlanBusiness Plan = "business"
)

// Identity verification states on the user record.
type IDStatus string

const (
	IDStatusNone     IDStatus = "none"
	IDStatusPending  IDStatus = "pending"
	IDStatusVerified IDStatus = "verified"
	IDStatusRejected IDStatus = "rejected"
)

type RentalType string

const (
	RentalTypeRent    RentalType = "rent"
	RentalTypeBooking RentalType = "booking"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
)

type BillingPeriod string

const (
	PeriodQuarterly BillingPeriod = "quarterly"
	PeriodYearly    BillingPeriod = "yearly"
	PeriodNone      BillingPeriod = "none"
)

type GcashStatus string

const (
	GcashPending   GcashStatus = "PENDING"
	GcashCompleted GcashStatus = "COMPLETED"
	GcashDeclined  GcashStatus = "DECLINED"
)

type PaymentMethod string

const (
	PaymentMethodGcash  PaymentMethod = "gcash"
	PaymentMethodStripe PaymentMethod = "stripe"
)

type User struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	Plan             Plan      `json:"plan"`
	IDStatus         IDStatus  `json:"idStatus"`
	IDFront          *string   `json:"idFront,omitempty"`
	IDBack           *string   `json:"idBack,omitempty"`
	IDType           *string   `json:"idType,omitempty"`
	StripeCustomerID *string   `json:"-"`
	IsArchived       bool      `json:"is_archived"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Listing struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	RentalType  RentalType `json:"rentalType"`
	Price       float64    `json:"price"`
	IsArchived  bool       `json:"is_archived"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Reservation carries ListingOwnerID denormalized so authorization checks
// do not need a listings join.
type Reservation struct {
	ID             uuid.UUID         `json:"id"`
	ListingID      uuid.UUID         `json:"listingId"`
	UserID         uuid.UUID         `json:"userId"`
	ListingOwnerID uuid.UUID         `json:"listingOwner"`
	StartDate      time.Time         `json:"startDate"`
	EndDate        *time.Time        `json:"endDate,omitempty"`
	TotalPrice     float64           `json:"totalPrice"`
	Status         ReservationStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// OpenEndedRental reports whether the reservation uses the epoch-zero end
// date marker for a rental with no fixed end.
func (r *Reservation) OpenEndedRental() bool {
	return r.EndDate != nil && r.EndDate.Unix() == 0
}

type Subscription struct {
	ID                uuid.UUID          `json:"id"`
	UserID            uuid.UUID          `json:"userId"`
	Plan              Plan               `json:"plan"`
	Period            BillingPeriod      `json:"period"`
	Status            SubscriptionStatus `json:"subscriptionStatus"`
	StartDate         time.Time          `json:"startDate"`
	EndDate           time.Time          `json:"endDate"`
	PaymentMethodType PaymentMethod      `json:"paymentMethodType"`
	ProviderEventTS   int64              `json:"-"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

type GcashPayment struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"userId"`
	Plan           Plan          `json:"plan"`
	BillingPeriod  string        `json:"billingPeriod"`
	Price          float64       `json:"price"`
	ReceiptRef     string        `json:"receiptRef"`
	Status         GcashStatus   `json:"status"`
	SubscriptionID *uuid.UUID    `json:"subscriptionId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	ReviewedAt     *time.Time    `json:"reviewedAt,omitempty"`
}

type SubscriptionPlan struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	AnnualPrice float64   `json:"annualPrice"`
	Features    []string  `json:"features"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
