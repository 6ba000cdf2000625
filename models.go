package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultWarehouseID is the id of the warehouse created by migrations.
var DefaultWarehouseID = uuid.Nil

const (
	DefaultWarehouseName     = "US Warehouse"
	DefaultWarehouseLocation = "United States"
)

// OperationType is a stock movement requested by a user.
type OperationType string

const (
	OperationInbound OperationType = "INBOUND"
	OperationAssign  OperationType = "ASSIGN"
	OperationScrap   OperationType = "SCRAP"
)

// IsValid reports whether the operation is one of the known types.
func (o OperationType) IsValid() bool {
	switch o {
	case OperationInbound, OperationAssign, OperationScrap:
		return true
	default:
		return false
	}
}

// LogAction is the action recorded in a StockLog.
type LogAction string

const (
	LogActionInbound LogAction = "INBOUND"
	LogActionUpdate  LogAction = "UPDATE"
	LogActionCreate  LogAction = "CREATE"
	LogActionAssign  LogAction = "ASSIGN"
	LogActionReturn  LogAction = "RETURN"
	LogActionScrap   LogAction = "SCRAP"
	LogActionDelete  LogAction = "DELETE"
)

// AssignmentStatus tracks whether assigned stock is still out.
type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "Active"
	AssignmentReturned AssignmentStatus = "Returned"
)

// Warehouse is a region that partitions every inventory record.
type Warehouse struct {
	bun.BaseModel `bun:"table:warehouses,alias:wh"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Name          string     `bun:"name,notnull" json:"name"`
	Location      string     `bun:"location" json:"location,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
}

// Category is a product category scoped to a warehouse.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	WarehouseID   uuid.UUID  `bun:"warehouse_id,notnull,type:uuid" json:"warehouseId"`
	Name          string     `bun:"name,notnull" json:"name"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
}

// Product is a stock keeping unit held in a warehouse.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:prd"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	WarehouseID   uuid.UUID  `bun:"warehouse_id,notnull,type:uuid" json:"warehouseId"`
	Name          string     `bun:"name,notnull" json:"name"`
	NameZh        string     `bun:"name_zh" json:"nameZh"`
	SKU           string     `bun:"sku,notnull" json:"sku"`
	Category      string     `bun:"category" json:"category"`
	Quantity      int        `bun:"quantity,notnull" json:"quantity"`
	Price         float64    `bun:"price,notnull" json:"price"`
	MinStock      int        `bun:"min_stock,notnull" json:"minStock"`
	Description   string     `bun:"description" json:"description"`
	LastUpdated   *time.Time `bun:"last_updated,nullzero" json:"lastUpdated"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
}

// IsLowStock reports whether the product is at or below its minimum.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}

// Normalize fills display defaults.
func (p *Product) Normalize(now time.Time) *Product {
	p.Name = fallback(p.Name, "Unnamed Asset")
	p.SKU = fallback(p.SKU, "N/A")
	p.Category = fallback(p.Category, "Uncategorized")
	if p.LastUpdated == nil {
		p.LastUpdated = &now
	}
	return p
}

// Employee is a staff member stock can be assigned to.
type Employee struct {
	bun.BaseModel `bun:"table:employees,alias:emp"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	WarehouseID   uuid.UUID  `bun:"warehouse_id,notnull,type:uuid" json:"warehouseId"`
	Name          string     `bun:"name,notnull" json:"name"`
	Email         string     `bun:"email" json:"email"`
	Phone         string     `bun:"phone_number" json:"phone,omitempty"`
	Department    string     `bun:"department" json:"department"`
	Role          string     `bun:"role" json:"role"`
	JoinedDate    *time.Time `bun:"joined_date,nullzero" json:"joinedDate"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
}

// Normalize fills display defaults.
func (e *Employee) Normalize(now time.Time) *Employee {
	e.Name = fallback(e.Name, "Unknown Staff")
	e.Department = fallback(e.Department, "General")
	e.Role = fallback(e.Role, "Staff")
	if e.JoinedDate == nil {
		if e.CreatedAt != nil {
			e.JoinedDate = e.CreatedAt
		} else {
			e.JoinedDate = &now
		}
	}
	return e
}

// Assignment is stock handed to an employee.
type Assignment struct {
	bun.BaseModel `bun:"table:assignments,alias:asg"`
	ID            uuid.UUID        `bun:"id,pk,type:uuid" json:"id"`
	WarehouseID   uuid.UUID        `bun:"warehouse_id,notnull,type:uuid" json:"warehouseId"`
	ProductID     uuid.UUID        `bun:"product_id,type:uuid" json:"productId"`
	ProductName   string           `bun:"product_name" json:"productName"`
	ProductNameZh string           `bun:"product_name_zh" json:"productNameZh"`
	EmployeeID    uuid.UUID        `bun:"employee_id,type:uuid" json:"employeeId"`
	EmployeeName  string           `bun:"employee_name" json:"employeeName"`
	Quantity      int              `bun:"quantity,notnull" json:"quantity"`
	AssignedDate  *time.Time       `bun:"assigned_date,nullzero" json:"assignedDate"`
	Status        AssignmentStatus `bun:"status" json:"status"`
	PerformedBy   string           `bun:"performed_by" json:"performedBy"`
	ReturnedDate  *time.Time       `bun:"returned_date,nullzero" json:"returnedDate,omitempty"`
}

// Normalize fills display defaults.
func (a *Assignment) Normalize(now time.Time) *Assignment {
	a.ProductName = fallback(a.ProductName, "Deleted Product")
	a.EmployeeName = fallback(a.EmployeeName, "Unknown Employee")
	a.Status = AssignmentStatus(fallback(string(a.Status), string(AssignmentActive)))
	a.PerformedBy = fallback(a.PerformedBy, "System")
	if a.AssignedDate == nil {
		a.AssignedDate = &now
	}
	return a
}

// ScrappedItem is stock written off.
type ScrappedItem struct {
	bun.BaseModel `bun:"table:scrapped_items,alias:scr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	WarehouseID   uuid.UUID  `bun:"warehouse_id,notnull,type:uuid" json:"warehouseId"`
	ProductID     uuid.UUID  `bun:"product_id,type:uuid" json:"productId"`
	ProductName   string     `bun:"product_name" json:"productName"`
	ProductNameZh string     `bun:"product_name_zh" json:"productNameZh"`
	Quantity      int        `bun:"quantity,notnull" json:"quantity"`
	Reason        string     `bun:"reason" json:"reason"`
	ScrappedDate  *time.Time `bun:"scrapped_date,nullzero" json:"scrappedDate"`
	PerformedBy   string     `bun:"performed_by" json:"performedBy"`
}

// Normalize fills display defaults.
func (s *ScrappedItem) Normalize(now time.Time) *ScrappedItem {
	s.Reason = fallback(s.Reason, "No reason provided")
	s.PerformedBy = fallback(s.PerformedBy, "System")
	if s.ScrappedDate == nil {
		s.ScrappedDate = &now
	}
	return s
}

// StockLog is an append only audit record of an inventory change.
type StockLog struct {
	bun.BaseModel `bun:"table:stock_logs,alias:slg"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	WarehouseID   uuid.UUID  `bun:"warehouse_id,notnull,type:uuid" json:"warehouseId"`
	Action        LogAction  `bun:"action" json:"action"`
	ProductName   string     `bun:"product_name" json:"productName"`
	Quantity      int        `bun:"quantity,notnull" json:"quantity"`
	PerformedBy   string     `bun:"performed_by" json:"performedBy"`
	Date          *time.Time `bun:"logged_at,nullzero" json:"date"`
	Details       string     `bun:"details" json:"details,omitempty"`
}

// Normalize fills display defaults.
func (l *StockLog) Normalize(now time.Time) *StockLog {
	l.Action = LogAction(fallback(string(l.Action), string(LogActionUpdate)))
	l.ProductName = fallback(l.ProductName, "Unknown Item")
	l.PerformedBy = fallback(l.PerformedBy, "System User")
	if l.Date == nil {
		l.Date = &now
	}
	return l
}

// AppUser is an account that can sign in to the dashboard.
type AppUser struct {
	bun.BaseModel      `bun:"table:app_users,alias:au"`
	ID                 uuid.UUID      `bun:"id,pk,type:uuid" json:"id"`
	Email              string         `bun:"email,notnull,unique" json:"email"`
	Role               UserRole       `bun:"role,notnull" json:"role"`
	IsApproved         bool           `bun:"is_approved,notnull" json:"isApproved"`
	ApprovalStatus     ApprovalStatus `bun:"approval_status" json:"approvalStatus"`
	AssignedWarehouses []string       `bun:"assigned_warehouses" json:"assignedWarehouses"`
	PasswordHash       string         `bun:"password_hash" json:"-"`
	LoginAttempts      int            `bun:"login_attempts" json:"-"`
	LoginAttemptAt     *time.Time     `bun:"login_attempt_at,nullzero" json:"-"`
	LoggedInAt         *time.Time     `bun:"loggedin_at,nullzero" json:"loggedInAt,omitempty"`
	ApprovedAt         *time.Time     `bun:"approved_at,nullzero" json:"approvedAt,omitempty"`
	CreatedAt          *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
	UpdatedAt          *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt,omitempty"`
}

// EnsureApprovalStatus derives the approval status from legacy rows that
// only carry is_approved.
func (u *AppUser) EnsureApprovalStatus() {
	if u == nil || u.ApprovalStatus != "" {
		return
	}
	if u.IsApproved {
		u.ApprovalStatus = ApprovalApproved
		return
	}
	u.ApprovalStatus = ApprovalPending
}

// HasWarehouse reports whether id is in the assigned list.
func (u *AppUser) HasWarehouse(id string) bool {
	for _, wid := range u.AssignedWarehouses {
		if strings.EqualFold(wid, id) {
			return true
		}
	}
	return false
}

// ToggleWarehouse adds id when missing and removes it otherwise. It
// returns true when the warehouse ends up assigned.
func (u *AppUser) ToggleWarehouse(id string) bool {
	out := make([]string, 0, len(u.AssignedWarehouses)+1)
	removed := false
	for _, wid := range u.AssignedWarehouses {
		if strings.EqualFold(wid, id) {
			removed = true
			continue
		}
		out = append(out, wid)
	}
	if !removed {
		out = append(out, id)
	}
	u.AssignedWarehouses = out
	return !removed
}

// DisplayName is the part of an email before "@", or "System" when empty.
func DisplayName(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "System"
	}
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// NormalizeEmail lower cases and trims an email for comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func fallback(val, def string) string {
	if strings.TrimSpace(val) == "" {
		return def
	}
	return val
}
