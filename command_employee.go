package inventory

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// DefaultPhoneRegion is used to parse phone numbers without a country prefix.
var DefaultPhoneRegion = "US"

// AddEmployeeMessage adds a staff member to a warehouse.
type AddEmployeeMessage struct {
	WarehouseID uuid.UUID  `json:"-"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Department  string     `json:"department"`
	Role        string     `json:"role"`
	JoinedDate  *time.Time `json:"joinedDate,omitempty"`
	Actor       ActorRef   `json:"-"`
}

func (m AddEmployeeMessage) Type() string { return "inventory.employee.add" }

// Validate checks the payload before any query runs.
func (m AddEmployeeMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.Email, is.Email),
		validation.Field(&m.Department, validation.Length(0, 100)),
		validation.Field(&m.Role, validation.Length(0, 100)),
	)
}

// AddEmployeeHandler stores new employees.
type AddEmployeeHandler struct {
	commandBase
	region string
}

// NewAddEmployeeHandler creates a handler with sane defaults.
func NewAddEmployeeHandler(repo RepositoryManager, opts ...HandlerOption) *AddEmployeeHandler {
	return &AddEmployeeHandler{
		commandBase: newCommandBase(repo, "inventory.employee", opts),
		region:      DefaultPhoneRegion,
	}
}

// WithPhoneRegion overrides the default region used to parse phone numbers.
func (h *AddEmployeeHandler) WithPhoneRegion(region string) *AddEmployeeHandler {
	if region != "" {
		h.region = strings.ToUpper(region)
	}
	return h
}

func (h *AddEmployeeHandler) Execute(ctx context.Context, msg AddEmployeeMessage) (*Employee, error) {
	if err := validationFailed(msg.Validate()); err != nil {
		return nil, err
	}

	phone, err := NormalizePhone(msg.Phone, h.region)
	if err != nil {
		return nil, err
	}

	var employee *Employee
	err = h.run(ctx, "employee add", func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Warehouses().FindWarehouseTx(ctx, tx, msg.WarehouseID); err != nil {
			return notFoundOr(err, "warehouse not found", map[string]any{
				"warehouse_id": msg.WarehouseID.String(),
			})
		}

		joined := msg.JoinedDate
		if joined == nil {
			now := h.now()
			joined = &now
		}

		var err error
		employee, err = h.repo.Employees().AddEmployeeTx(ctx, tx, &Employee{
			WarehouseID: msg.WarehouseID,
			Name:        strings.TrimSpace(msg.Name),
			Email:       NormalizeEmail(msg.Email),
			Phone:       phone,
			Department:  strings.TrimSpace(msg.Department),
			Role:        strings.TrimSpace(msg.Role),
			JoinedDate:  joined,
		})
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store employee")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.emit(ctx, ActivityEvent{
		EventType:   ActivityEventEmployeeAdded,
		Actor:       msg.Actor,
		WarehouseID: msg.WarehouseID.String(),
		Metadata: map[string]any{
			"employee_id": employee.ID.String(),
		},
	})

	return employee.Normalize(h.now()), nil
}

// NormalizePhone formats a phone number as E.164. Empty input is allowed.
func NormalizePhone(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("phone number is not valid", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"phone": phone, "region": region})
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
