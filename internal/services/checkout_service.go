// internal/services/checkout_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/javajoker/jewelry-backend/internal/config"
	"github.com/javajoker/jewelry-backend/internal/models"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

// CheckoutService starts a card payment for a single product. The amount
// always comes from the stored final price, never from the client.
type CheckoutService struct {
	store        CatalogStore
	secretKey    string
	currency     string
	createIntent func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type CheckoutRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=100"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
}

type PaymentIntentResponse struct {
	ClientSecret string  `json:"client_secret"`
	PaymentID    string  `json:"payment_id"`
	Status       string  `json:"status"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

func NewCheckoutService(store CatalogStore, cfg *config.Config) *CheckoutService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &CheckoutService{
		store:        store,
		secretKey:    cfg.Payment.StripeSecretKey,
		currency:     cfg.Payment.Currency,
		createIntent: paymentintent.New,
	}
}

func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, req *CheckoutRequest) (*PaymentIntentResponse, error) {
	if s.secretKey == "" {
		return nil, ErrCheckoutUnavailable
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.store.FindProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Status != models.ProductStatusActive || product.FinalPrice <= 0 {
		return nil, ErrProductNotForSale
	}

	amount := decimal.NewFromFloat(product.FinalPrice).Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2)
	// Stripe takes the smallest currency unit
	amountInMinor := amount.Shift(2).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInMinor),
		Currency: stripe.String(s.currency),
	}
	params.Context = ctx
	params.AddMetadata("product_id", product.ID.String())
	params.AddMetadata("sku", product.SKU)
	params.AddMetadata("quantity", fmt.Sprintf("%d", req.Quantity))
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}

	pi, err := s.createIntent(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"payment_id": pi.ID,
		"amount":     amountInMinor,
	}).Info("Payment intent created")

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
		Amount:       amount.InexactFloat64(),
		Currency:     s.currency,
	}, nil
}
