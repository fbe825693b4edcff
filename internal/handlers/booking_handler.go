package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/helpers"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/services"
)

// statusFor maps the domain error taxonomy onto HTTP status codes. Errors
// keep their specific kind all the way to the response body.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrCapacityExceeded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func currentClaims(c *gin.Context) (*helpers.CustomClaims, bool) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("Unauthorized"))
		return nil, false
	}
	claims, ok := user.(*helpers.CustomClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("invalid user claims"))
		return nil, false
	}
	return claims, true
}

func bookingIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	raw := helpers.StringTrim(c.Param("id"))
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid booking ID format"))
		return primitive.NilObjectID, false
	}
	return id, true
}

type createBookingRequest struct {
	PackageID       string               `json:"package_id" binding:"required"`
	EventDateTime   time.Time            `json:"event_datetime" binding:"required"`
	TableCount      int                  `json:"table_count" binding:"required"`
	SelectedMenus   []string             `json:"selected_menus"`
	Location        models.EventLocation `json:"location"`
	SpecialRequest  string               `json:"special_request"`
	DepositOverride *models.Money        `json:"deposit_override"`
}

func CreateBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}

		var req createBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		customerID, err := primitive.ObjectIDFromHex(claims.UserID())
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid user ID in token"))
			return
		}
		packageID, err := primitive.ObjectIDFromHex(helpers.StringTrim(req.PackageID))
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid package ID format"))
			return
		}

		booking, err := bs.CreateBooking(c.Request.Context(), services.CreateBookingRequest{
			CustomerID:      customerID,
			PackageID:       packageID,
			EventDateTime:   req.EventDateTime,
			TableCount:      req.TableCount,
			SelectedMenus:   req.SelectedMenus,
			Location:        req.Location,
			SpecialRequest:  req.SpecialRequest,
			DepositOverride: req.DepositOverride,
		})
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(booking, "Booking created successfully"))
	}
}

func GetBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		id, ok := bookingIDParam(c)
		if !ok {
			return
		}

		booking, err := bs.GetBooking(c.Request.Context(), id)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		if !claims.IsAdmin() && booking.Customer.CustomerID.Hex() != claims.UserID() {
			c.JSON(http.StatusForbidden, models.ErrorResponse("booking does not belong to caller"))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(booking, ""))
	}
}

func ListMyBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		customerID, err := primitive.ObjectIDFromHex(claims.UserID())
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid user ID in token"))
			return
		}

		var status *models.PaymentStatus
		if s := c.Query("status"); s != "" {
			ps := models.PaymentStatus(s)
			status = &ps
		}

		bookings, err := bs.ListCustomerBookings(c.Request.Context(), customerID, status)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(bookings, ""))
	}
}

func ListAllBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := c.DefaultQuery("limit", "20")
		offset := c.DefaultQuery("offset", "0")
		limitInt, err := strconv.Atoi(limit)
		if err != nil || limitInt <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid limit parameter"))
			return
		}
		offsetInt, err := strconv.Atoi(offset)
		if err != nil || offsetInt < 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid offset parameter"))
			return
		}

		bookings, total, err := bs.ListBookings(c.Request.Context(), offsetInt, limitInt)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}

		page := (offsetInt / limitInt) + 1
		c.JSON(http.StatusOK, models.PaginatedResponse(bookings, page, limitInt, total))
	}
}

type recordPaymentRequest struct {
	Amount         models.Money `json:"amount"`
	PaymentType    string       `json:"payment_type" binding:"required,oneof=deposit balance full-payment"`
	ProofReference string       `json:"proof_reference"`
}

func RecordPayment(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		id, ok := bookingIDParam(c)
		if !ok {
			return
		}

		var req recordPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		if !claims.IsAdmin() {
			booking, err := bs.GetBooking(c.Request.Context(), id)
			if err != nil {
				c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
				return
			}
			if booking.Customer.CustomerID.Hex() != claims.UserID() {
				c.JSON(http.StatusForbidden, models.ErrorResponse("booking does not belong to caller"))
				return
			}
		}

		updated, err := bs.RecordPayment(c.Request.Context(), id, req.Amount,
			models.PaymentType(req.PaymentType), req.ProofReference)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(updated, "Payment recorded"))
	}
}

type uploadSlipRequest struct {
	Image string `json:"image" binding:"required"`
}

// UploadSlip pushes a payment-slip image to Cloudinary and returns the
// hosted URL to use as proof_reference when recording the payment.
func UploadSlip(cld *cloudinary.Cloudinary) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentClaims(c); !ok {
			return
		}
		if cld == nil {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse("slip upload is not configured"))
			return
		}

		var req uploadSlipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		url, err := helpers.UploadSlip(c.Request.Context(), cld, req.Image)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"proof_reference": url}, "Slip uploaded"))
	}
}

func CancelBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		id, ok := bookingIDParam(c)
		if !ok {
			return
		}

		if !claims.IsAdmin() {
			booking, err := bs.GetBooking(c.Request.Context(), id)
			if err != nil {
				c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
				return
			}
			if booking.Customer.CustomerID.Hex() != claims.UserID() {
				c.JSON(http.StatusForbidden, models.ErrorResponse("booking does not belong to caller"))
				return
			}
		}

		updated, err := bs.CancelBooking(c.Request.Context(), id)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(updated, "Booking cancelled successfully"))
	}
}

type reviseMenusRequest struct {
	SelectedMenus []string `json:"selected_menus" binding:"required"`
}

func ReviseMenus(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		id, ok := bookingIDParam(c)
		if !ok {
			return
		}

		var req reviseMenusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		if !claims.IsAdmin() {
			booking, err := bs.GetBooking(c.Request.Context(), id)
			if err != nil {
				c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
				return
			}
			if booking.Customer.CustomerID.Hex() != claims.UserID() {
				c.JSON(http.StatusForbidden, models.ErrorResponse("booking does not belong to caller"))
				return
			}
		}

		updated, err := bs.ReviseMenus(c.Request.Context(), id, req.SelectedMenus)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(updated, "Menu selection updated"))
	}
}

type overrideStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Message string `json:"message"`
}

func OverrideStatus(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bookingIDParam(c)
		if !ok {
			return
		}

		var req overrideStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		updated, err := bs.OverrideStatus(c.Request.Context(), id,
			models.PaymentStatus(req.Status), req.Message)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(updated, "Booking status updated"))
	}
}

// DateAvailability serves the public calendar: booking counts per day over
// the requested range, alongside the daily cap.
func DateAvailability(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		startStr := c.Query("start")
		endStr := c.Query("end")

		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid start date, expected YYYY-MM-DD"))
			return
		}
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid end date, expected YYYY-MM-DD"))
			return
		}

		counts, err := bs.DateAvailability(c.Request.Context(), start, end)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"days":        counts,
			"max_per_day": bs.MaxBookingsPerDay(),
		}, ""))
	}
}
