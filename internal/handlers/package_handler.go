package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/helpers"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/services"
)

func packageIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	raw := helpers.StringTrim(c.Param("id"))
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid package ID format"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func ListPackages(ps *services.PackageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		packages, err := ps.ListPackages(c.Request.Context())
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(packages, ""))
	}
}

func GetPackage(ps *services.PackageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := packageIDParam(c)
		if !ok {
			return
		}
		pkg, err := ps.GetPackage(c.Request.Context(), id)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(pkg, ""))
	}
}

type packageRequest struct {
	Name           string       `json:"name" binding:"required"`
	Price          models.Money `json:"price"`
	Menus          []string     `json:"menus" binding:"required"`
	MaxSelect      int          `json:"max_select"`
	ExtraMenuPrice models.Money `json:"extra_menu_price"`
}

func CreatePackage(ps *services.PackageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req packageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		pkg := &models.MenuPackage{
			Name:           req.Name,
			Price:          req.Price,
			Menus:          req.Menus,
			MaxSelect:      req.MaxSelect,
			ExtraMenuPrice: req.ExtraMenuPrice,
		}
		created, err := ps.CreatePackage(c.Request.Context(), pkg)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(created, "Package created successfully"))
	}
}

type packageUpdateRequest struct {
	Name           *string       `json:"name"`
	Price          *models.Money `json:"price"`
	Menus          *[]string     `json:"menus"`
	MaxSelect      *int          `json:"max_select"`
	ExtraMenuPrice *models.Money `json:"extra_menu_price"`
}

func UpdatePackage(ps *services.PackageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := packageIDParam(c)
		if !ok {
			return
		}

		var req packageUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		pkg, err := ps.UpdatePackage(c.Request.Context(), id, services.PackageUpdate{
			Name:           req.Name,
			Price:          req.Price,
			Menus:          req.Menus,
			MaxSelect:      req.MaxSelect,
			ExtraMenuPrice: req.ExtraMenuPrice,
		})
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(pkg, "Package updated successfully"))
	}
}

func DeletePackage(ps *services.PackageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := packageIDParam(c)
		if !ok {
			return
		}
		if err := ps.DeletePackage(c.Request.Context(), id); err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Package deleted successfully"))
	}
}
