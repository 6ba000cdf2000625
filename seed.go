package inventory

import (
	"context"
	"io"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// Fixtures is the YAML document read by Seed.
type Fixtures struct {
	Warehouses []WarehouseFixture `yaml:"warehouses"`
	Categories []CategoryFixture  `yaml:"categories"`
	Products   []ProductFixture   `yaml:"products"`
	Employees  []EmployeeFixture  `yaml:"employees"`
	Users      []UserFixture      `yaml:"users"`
}

type WarehouseFixture struct {
	ID       uuid.UUID `yaml:"id"`
	Name     string    `yaml:"name"`
	Location string    `yaml:"location"`
}

type CategoryFixture struct {
	WarehouseID uuid.UUID `yaml:"warehouse_id"`
	Name        string    `yaml:"name"`
}

type ProductFixture struct {
	WarehouseID uuid.UUID `yaml:"warehouse_id"`
	Name        string    `yaml:"name"`
	NameZh      string    `yaml:"name_zh"`
	SKU         string    `yaml:"sku"`
	Category    string    `yaml:"category"`
	Quantity    int       `yaml:"quantity"`
	Price       float64   `yaml:"price"`
	MinStock    *int      `yaml:"min_stock"`
	Description string    `yaml:"description"`
}

type EmployeeFixture struct {
	WarehouseID uuid.UUID `yaml:"warehouse_id"`
	Name        string    `yaml:"name"`
	Email       string    `yaml:"email"`
	Phone       string    `yaml:"phone"`
	Department  string    `yaml:"department"`
	Role        string    `yaml:"role"`
}

type UserFixture struct {
	Email      string   `yaml:"email"`
	Password   string   `yaml:"password"`
	Role       UserRole `yaml:"role"`
	Approved   bool     `yaml:"approved"`
	Warehouses []string `yaml:"warehouses"`
}

// SeedReport counts the records Seed inserted and skipped.
type SeedReport struct {
	Inserted map[string]int `json:"inserted"`
	Skipped  map[string]int `json:"skipped"`
}

func newSeedReport() *SeedReport {
	return &SeedReport{Inserted: map[string]int{}, Skipped: map[string]int{}}
}

// ParseFixtures decodes a fixtures document.
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	fx := &Fixtures{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(fx); err != nil && err != io.EOF {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse fixtures").
			WithCode(goerrors.CodeBadRequest)
	}
	return fx, nil
}

// Seed inserts the fixtures in one transaction. Existing records are
// skipped: warehouses by id (or name when the fixture has no id), categories
// by name, products by SKU, employees by name and email, users by email.
func Seed(ctx context.Context, repo RepositoryManager, fx *Fixtures, logger Logger) (*SeedReport, error) {
	_, logger = ResolveLogger("inventory.seed", nil, logger)
	report := newSeedReport()
	now := time.Now()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		all, err := repo.Warehouses().ListAllTx(ctx, tx)
		if err != nil {
			return err
		}
		for _, w := range fx.Warehouses {
			if warehouseExists(all, w) {
				report.Skipped["warehouses"]++
				continue
			}
			record := &Warehouse{ID: w.ID, Name: w.Name, Location: w.Location}
			if _, err := repo.Warehouses().CreateWarehouseTx(ctx, tx, record); err != nil {
				return err
			}
			report.Inserted["warehouses"]++
		}

		for _, c := range fx.Categories {
			existing, err := repo.Categories().NamesForWarehouseTx(ctx, tx, c.WarehouseID)
			if err != nil {
				return err
			}
			if containsName(existing, c.Name) {
				report.Skipped["categories"]++
				continue
			}
			if _, err := repo.Categories().AddCategoryTx(ctx, tx, c.WarehouseID, strings.TrimSpace(c.Name)); err != nil {
				return err
			}
			report.Inserted["categories"]++
		}

		for _, p := range fx.Products {
			existing, err := repo.Products().ListForWarehouseTx(ctx, tx, p.WarehouseID)
			if err != nil {
				return err
			}
			if hasSKU(existing, p.SKU) {
				report.Skipped["products"]++
				continue
			}
			minStock := DefaultMinStock
			if p.MinStock != nil {
				minStock = *p.MinStock
			}
			_, err = repo.Products().CreateProductTx(ctx, tx, &Product{
				WarehouseID: p.WarehouseID,
				Name:        p.Name,
				NameZh:      p.NameZh,
				SKU:         strings.TrimSpace(p.SKU),
				Category:    p.Category,
				Quantity:    p.Quantity,
				Price:       p.Price,
				MinStock:    minStock,
				Description: p.Description,
			})
			if err != nil {
				return err
			}
			report.Inserted["products"]++
		}

		for _, e := range fx.Employees {
			existing, err := repo.Employees().ListForWarehouseTx(ctx, tx, e.WarehouseID)
			if err != nil {
				return err
			}
			if hasEmployee(existing, e.Name, e.Email) {
				report.Skipped["employees"]++
				continue
			}

			phone := e.Phone
			if phone != "" {
				normalized, err := NormalizePhone(phone, DefaultPhoneRegion)
				if err != nil {
					return err
				}
				phone = normalized
			}
			joined := now
			_, err = repo.Employees().AddEmployeeTx(ctx, tx, &Employee{
				WarehouseID: e.WarehouseID,
				Name:        e.Name,
				Email:       e.Email,
				Phone:       phone,
				Department:  e.Department,
				Role:        e.Role,
				JoinedDate:  &joined,
			})
			if err != nil {
				return err
			}
			report.Inserted["employees"]++
		}

		for _, u := range fx.Users {
			email := NormalizeEmail(u.Email)
			if _, err := repo.Users().GetByIdentifierTx(ctx, tx, email); err == nil {
				report.Skipped["users"]++
				continue
			} else if !isNotFound(err) {
				return err
			}

			hash := RandomPasswordHash()
			if u.Password != "" {
				var err error
				if hash, err = HashPassword(u.Password); err != nil {
					return err
				}
			}

			role := u.Role
			if !role.IsValid() {
				role = RoleUser
			}
			status := ApprovalPending
			var approvedAt *time.Time
			if u.Approved {
				status = ApprovalApproved
				approvedAt = &now
			}
			warehouses := u.Warehouses
			if warehouses == nil {
				warehouses = []string{}
			}

			_, err := repo.Users().RegisterTx(ctx, tx, &AppUser{
				Email:              email,
				PasswordHash:       hash,
				Role:               role,
				IsApproved:         u.Approved,
				ApprovalStatus:     status,
				ApprovedAt:         approvedAt,
				AssignedWarehouses: warehouses,
			})
			if err != nil {
				return err
			}
			report.Inserted["users"]++
		}

		return nil
	})
	if err != nil {
		if IsSchemaError(err) {
			return nil, ErrSchemaNotReady
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to seed fixtures")
	}

	logger.Info("fixtures seeded", "inserted", report.Inserted, "skipped", report.Skipped)
	return report, nil
}

func containsName(names []string, name string) bool {
	name = strings.TrimSpace(name)
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func hasSKU(products []*Product, sku string) bool {
	sku = strings.TrimSpace(sku)
	for _, p := range products {
		if strings.EqualFold(p.SKU, sku) {
			return true
		}
	}
	return false
}

func hasEmployee(employees []*Employee, name, email string) bool {
	for _, e := range employees {
		if strings.EqualFold(e.Name, strings.TrimSpace(name)) && strings.EqualFold(e.Email, strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

func warehouseExists(all []*Warehouse, w WarehouseFixture) bool {
	for _, existing := range all {
		if w.ID != uuid.Nil && existing.ID == w.ID {
			return true
		}
		if w.ID == uuid.Nil && strings.EqualFold(existing.Name, strings.TrimSpace(w.Name)) {
			return true
		}
	}
	return false
}
