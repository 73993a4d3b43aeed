package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"net/http"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/findingu/multinivel_backend/models"
	"github.com/findingu/multinivel_backend/repositories"
	"github.com/findingu/multinivel_backend/utils"
)

// ReferralController serves shareable referral links and their QR codes.
type ReferralController struct {
	DB        *mongo.Client
	customers *repositories.CustomerRepository
}

func NewReferralController(db *mongo.Client) *ReferralController {
	return &ReferralController{DB: db, customers: repositories.NewCustomerRepository(db)}
}

func (rc *ReferralController) lookupCustomer(ctx context.Context, idParam string) (*models.Customer, error) {
	objID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		return nil, err
	}
	return rc.customers.GetByID(ctx, objID)
}

// GetReferralLink returns the customer's share link. Only top and mid level
// members may refer.
func (rc *ReferralController) GetReferralLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	customer, err := rc.lookupCustomer(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Customer not found",
		})
	}
	if !customer.CanRefer() {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "This membership level cannot refer new members",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral link retrieved successfully",
		Data: map[string]interface{}{
			"referralCode": customer.ReferralCode,
			"referralLink": utils.ReferralLink(customer.ReferralCode),
		},
	})
}

func (rc *ReferralController) referralQRPNG(code string) ([]byte, error) {
	qrCode, err := qr.Encode(utils.ReferralLink(code), qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	qrCode, err = barcode.Scale(qrCode, 200, 200)
	if err != nil {
		return nil, err
	}
	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, qrCode); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// GetReferralQR streams a PNG QR code for a referral code.
func (rc *ReferralController) GetReferralQR(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	customer, err := rc.customers.GetByReferralCode(ctx, c.Param("code"))
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Referral code not found",
		})
	}

	img, err := rc.referralQRPNG(customer.ReferralCode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}
	return c.Blob(http.StatusOK, "image/png", img)
}

// GetReferralQRBase64 returns the QR code as a base64 payload for clients
// that embed it inline.
func (rc *ReferralController) GetReferralQRBase64(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	customer, err := rc.customers.GetByReferralCode(ctx, c.Param("code"))
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Referral code not found",
		})
	}

	img, err := rc.referralQRPNG(customer.ReferralCode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "QR code generated successfully",
		Data: map[string]interface{}{
			"referralCode": customer.ReferralCode,
			"qrBase64":     "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
		},
	})
}
