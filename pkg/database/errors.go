package database

import (
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"strings"
	"syscall"

	"github.com/lib/pq"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not something we know how to translate.
func MapPQError(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	if isConnectionError(err) {
		return errors.Unavailable(err)
	}

	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch {
	// undefined_table, invalid_schema_name: schema not migrated yet
	case pqErr.Code == "42P01", pqErr.Code == "3F000":
		return errors.Unavailable(err)

	// connection_exception class, cannot_connect_now, admin_shutdown
	case pqErr.Code.Class() == "08", pqErr.Code == "57P03", pqErr.Code == "57P01":
		return errors.Unavailable(err)

	case pqErr.Code == "23514":
		return mapCheckConstraint(pqErr)

	case pqErr.Code == "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	case pqErr.Code == "23503":
		return errors.BadRequest("referenced record does not exist")

	case pqErr.Code == "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// Classify returns the mapped AppError when there is one, otherwise err unchanged.
// sql.ErrNoRows is left alone so callers can turn it into a domain not-found.
func Classify(err error) error {
	if err == nil || stderrors.Is(err, sql.ErrNoRows) {
		return err
	}
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

func isConnectionError(err error) bool {
	if stderrors.Is(err, driver.ErrBadConn) || stderrors.Is(err, sql.ErrConnDone) {
		return true
	}
	if stderrors.Is(err, syscall.ECONNREFUSED) || stderrors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr)
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "current_quantity"):
		return errors.Conflict("insufficient stock in batch")

	case strings.Contains(constraint, "quantity"):
		return errors.Validation(map[string]string{
			"quantity": "must be greater than 0",
		})

	case strings.Contains(constraint, "unit_cost"):
		return errors.Validation(map[string]string{
			"unit_cost": "must be 0 or greater",
		})

	case strings.Contains(constraint, "selling_price"):
		return errors.Validation(map[string]string{
			"selling_price": "must be 0 or greater",
		})

	case strings.Contains(constraint, "min_stock"), strings.Contains(constraint, "max_stock"),
		strings.Contains(constraint, "reorder_level"):
		field := strings.TrimPrefix(constraint, "chk_products_")
		return errors.Validation(map[string]string{
			field: "must be 0 or greater",
		})

	case strings.Contains(constraint, "products_status"):
		return errors.Validation(map[string]string{
			"status": "must be one of: ACTIVE, INACTIVE, DISCONTINUED",
		})

	case strings.Contains(constraint, "stock_batches_status"):
		return errors.Validation(map[string]string{
			"status": "must be one of: ACTIVE, EXPIRED, DEPLETED, RECALLED",
		})

	case strings.Contains(constraint, "users_role"):
		return errors.Validation(map[string]string{
			"role": "must be one of: admin, pharmacist, cashier",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "product_code"):
		return "a product with this code already exists"
	case strings.Contains(constraint, "barcode"):
		return "a product with this barcode already exists"
	case strings.Contains(constraint, "store_code"):
		return "a store with this code already exists"
	case strings.Contains(constraint, "username"):
		return "a user with this username already exists"
	case strings.Contains(constraint, "batch_number"):
		return "this batch number is already registered for the product at this store"
	default:
		return "a record with these values already exists"
	}
}
