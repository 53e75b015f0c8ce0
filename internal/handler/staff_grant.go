package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/corefit/studio-booking/internal/model"
)

// IssueGrant handles POST /v1/admin/members/:id/grants.  It issues a
// new entitlement grant to the member from a package definition.
// Paid kinds (membership, first_trial, promo) must reference an order
// belonging to the member; bonus grants are issued without one.  The
// grant's totals and validity window derive from the package, with an
// optional start_date override.
func (h *StaffHandler) IssueGrant(c echo.Context) error {
	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	var body struct {
		PackageID uint64  `json:"package_id"`
		OrderID   *uint64 `json:"order_id"`
		StartDate string  `json:"start_date"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PackageID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "package_id is required"})
	}

	ctx := c.Request().Context()
	if _, err := h.MemberRepo.GetByID(ctx, memberID); err != nil {
		return writeError(c, err)
	}
	pkg, err := h.PackageRepo.GetByID(ctx, body.PackageID)
	if err != nil {
		return writeError(c, err)
	}
	if !pkg.Active {
		return c.JSON(http.StatusConflict, echo.Map{"error": "package is not active"})
	}

	if pkg.Kind != model.KindBonus {
		if body.OrderID == nil || *body.OrderID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id is required for paid packages"})
		}
		order, err := h.OrderRepo.GetByID(ctx, *body.OrderID)
		if err != nil {
			return writeError(c, err)
		}
		if order.MemberID != memberID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "order belongs to another member"})
		}
	}

	totals, err := model.GrantTotalsFor(*pkg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalid package definition"})
	}
	start := h.Clock.Now()
	if body.StartDate != "" {
		start, err = time.ParseInLocation("2006-01-02", body.StartDate, time.UTC)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date, expected YYYY-MM-DD"})
		}
	}
	startDate, endDate := model.GrantWindowFor(*pkg, start)

	grant := &model.Grant{
		MemberID:  memberID,
		PackageID: pkg.ID,
		Kind:      pkg.Kind,
		OrderID:   body.OrderID,
		StartDate: startDate,
		EndDate:   endDate,
		Total:     totals,
	}
	if pkg.Kind == model.KindBonus {
		grant.OrderID = nil
	}
	if err := h.GrantRepo.Create(ctx, grant); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create grant"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"grant_id":   grant.ID,
		"kind":       string(grant.Kind),
		"start_date": grant.StartDate.Format("2006-01-02"),
		"end_date":   grant.EndDate.Format("2006-01-02"),
		"total":      grant.Total,
	})
}

// ListPackages handles GET /v1/admin/packages.  It returns the active
// package catalogue staff can issue grants from.
func (h *StaffHandler) ListPackages(c echo.Context) error {
	pkgs, err := h.PackageRepo.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load packages"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": pkgs})
}
