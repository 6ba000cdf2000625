package inventory

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

const warehouseLocalsKey = "inventory.warehouse_id"

// ControllerViews names the templates rendered by the controller.
type ControllerViews struct {
	Login      string
	Dashboard  string
	Restricted string
}

// Controller serves the dashboard API and pages.
type Controller struct {
	Debug           bool
	Logger          Logger
	Repo            RepositoryManager
	Auther          *RouteAuthenticator
	Validator       TokenValidator
	Access          *AccessResolver
	Snapshots       *SnapshotLoader
	Advisor         Advisor
	Metrics         *Metrics
	LoginLimiter    *KeyedLimiter
	AdvisorLimiter  *KeyedLimiter
	Views           *ControllerViews
	SuperAdminEmail string
	PhoneRegion     string
	HandlerOptions  []HandlerOption
	ActivitySink    ActivitySink

	saveProduct    *SaveProductHandler
	deleteProduct  *DeleteProductHandler
	stockOperation *StockOperationHandler
	returnAsset    *ReturnAssetHandler
	addEmployee    *AddEmployeeHandler
	categories     *CategoriesHandler
	accounts       *AccountsHandler
	registerUser   *RegisterUserHandler
	changePassword *ChangePasswordHandler
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller) *Controller

func WithControllerRepo(repo RepositoryManager) ControllerOption {
	return func(c *Controller) *Controller {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(a *RouteAuthenticator) ControllerOption {
	return func(c *Controller) *Controller {
		c.Auther = a
		return c
	}
}

// WithControllerValidator sets the validator used by protected routes.
func WithControllerValidator(v TokenValidator) ControllerOption {
	return func(c *Controller) *Controller {
		c.Validator = v
		return c
	}
}

func WithControllerAdvisor(a Advisor) ControllerOption {
	return func(c *Controller) *Controller {
		c.Advisor = a
		return c
	}
}

func WithControllerMetrics(m *Metrics) ControllerOption {
	return func(c *Controller) *Controller {
		c.Metrics = m
		return c
	}
}

func WithControllerLogger(l Logger) ControllerOption {
	return func(c *Controller) *Controller {
		_, c.Logger = ResolveLogger("http.controller", nil, l)
		return c
	}
}

// WithControllerSuperAdmin sets the bootstrap super admin email.
func WithControllerSuperAdmin(email string) ControllerOption {
	return func(c *Controller) *Controller {
		c.SuperAdminEmail = email
		return c
	}
}

// WithControllerRateLimits sets per minute limits for sign in attempts and
// advisor calls. Zero disables a limit.
func WithControllerRateLimits(loginPerMinute, advisorPerMinute float64, burst int) ControllerOption {
	return func(c *Controller) *Controller {
		c.LoginLimiter = NewKeyedLimiter(loginPerMinute, burst)
		c.AdvisorLimiter = NewKeyedLimiter(advisorPerMinute, burst)
		return c
	}
}

// WithControllerPhoneRegion sets the default region for employee phones.
func WithControllerPhoneRegion(region string) ControllerOption {
	return func(c *Controller) *Controller {
		c.PhoneRegion = region
		return c
	}
}

// WithControllerHandlerOptions passes options to every command handler.
func WithControllerHandlerOptions(opts ...HandlerOption) ControllerOption {
	return func(c *Controller) *Controller {
		c.HandlerOptions = append(c.HandlerOptions, opts...)
		return c
	}
}

// WithControllerActivitySink sends access and command events to sink.
func WithControllerActivitySink(sink ActivitySink) ControllerOption {
	return func(c *Controller) *Controller {
		c.ActivitySink = sink
		c.HandlerOptions = append(c.HandlerOptions, WithHandlerActivitySink(sink))
		return c
	}
}

func WithControllerDebug(debug bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Debug = debug
		return c
	}
}

// NewController builds the controller and its command handlers.
func NewController(opts ...ControllerOption) *Controller {
	_, logger := ResolveLogger("http.controller", nil, nil)
	c := &Controller{
		Logger: logger,
		Views: &ControllerViews{
			Login:      "login",
			Dashboard:  "dashboard",
			Restricted: "restricted",
		},
		PhoneRegion: DefaultPhoneRegion,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in inventory controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in inventory controller...")
	}

	if c.Validator == nil {
		panic("Missing TokenValidator in inventory controller...")
	}

	if c.Access == nil {
		c.Access = NewAccessResolver(c.Repo, c.SuperAdminEmail).
			WithLogger(c.Logger).
			WithActivitySink(c.ActivitySink)
	}
	if c.Snapshots == nil {
		c.Snapshots = NewSnapshotLoader(c.Repo, c.Logger)
	}
	if c.LoginLimiter == nil {
		c.LoginLimiter = NewKeyedLimiter(0, 1)
	}
	if c.AdvisorLimiter == nil {
		c.AdvisorLimiter = NewKeyedLimiter(0, 1)
	}

	hopts := c.HandlerOptions
	c.saveProduct = NewSaveProductHandler(c.Repo, hopts...)
	c.deleteProduct = NewDeleteProductHandler(c.Repo, hopts...)
	c.stockOperation = NewStockOperationHandler(c.Repo, hopts...)
	c.returnAsset = NewReturnAssetHandler(c.Repo, hopts...)
	c.addEmployee = NewAddEmployeeHandler(c.Repo, hopts...).WithPhoneRegion(c.PhoneRegion)
	c.categories = NewCategoriesHandler(c.Repo, hopts...)
	c.accounts = NewAccountsHandler(c.Repo, c.SuperAdminEmail, hopts...)
	c.registerUser = NewRegisterUserHandler(c.Repo, c.SuperAdminEmail, hopts...)
	c.changePassword = NewChangePasswordHandler(c.Repo, hopts...)

	return c
}

// RegisterRoutes mounts every route of the dashboard on app.
func RegisterRoutes(app fiber.Router, opts ...ControllerOption) *Controller {
	c := NewController(opts...)

	if c.Metrics != nil {
		app.Use(c.Metrics.Middleware())
		app.Get("/metrics", c.Metrics.Handler())
	}

	app.Get("/healthz", c.Health)

	protected := c.Auther.ProtectedRoute(c.Validator, nil)
	optional := c.Auther.ProtectedRoute(c.Validator, c.Auther.MakeAuthErrorHandler(true))

	app.Get("/", optional, c.Dashboard)
	app.Get("/restricted", protected, c.resolveAccess, c.Restricted)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", c.LoginPost)
	authGroup.Post("/register", c.RegisterPost)
	authGroup.Post("/logout", c.LogoutPost)
	authGroup.Post("/password", protected, c.PasswordPost)

	api := app.Group("/api", protected, c.resolveAccess)
	api.Get("/me", c.Me)

	admin := api.Group("/admin", c.requireRole(RoleSuperAdmin))
	admin.Get("/users", c.ListUsers)
	admin.Post("/users/:email/approval", c.ToggleApproval)
	admin.Post("/users/:email/warehouses/:wid", c.ToggleWarehouseAccess)
	admin.Post("/warehouses", c.CreateWarehouse)

	warehouses := api.Group("/warehouses", c.requireApproved)
	warehouses.Get("/", c.ListWarehouses)

	scoped := warehouses.Group("/:wid", c.warehouseGuard)
	scoped.Get("/snapshot", c.Snapshot)
	scoped.Get("/products", c.ListProducts)
	scoped.Post("/products", c.CreateProduct)
	scoped.Put("/products/:id", c.UpdateProduct)
	scoped.Delete("/products/:id", c.DeleteProduct)
	scoped.Post("/stock", c.StockOperation)
	scoped.Get("/employees", c.ListEmployees)
	scoped.Post("/employees", c.AddEmployee)
	scoped.Get("/assignments", c.ListAssignments)
	scoped.Post("/assignments/:id/return", c.ReturnAsset)
	scoped.Get("/scrapped", c.ListScrapped)
	scoped.Get("/categories", c.ListCategories)
	scoped.Post("/categories", c.requireRole(RoleAdmin), c.AddCategory)
	scoped.Delete("/categories/:name", c.requireRole(RoleAdmin), c.RemoveCategory)
	scoped.Get("/logs", c.ListLogs)
	scoped.Get("/stats", c.Stats)
	scoped.Post("/ai/description", c.limitAdvisor, c.GenerateDescription)
	scoped.Post("/ai/analysis", c.limitAdvisor, c.AnalyzeInventory)

	return c
}

// resolveAccess loads the access state of the session identity.
func (c *Controller) resolveAccess(ctx *fiber.Ctx) error {
	session, err := c.Auther.GetSession(ctx)
	if err != nil {
		return err
	}

	state, err := c.Access.Resolve(ctx.UserContext(), session.GetEmail(), session.GetUserID())
	if err != nil {
		return err
	}

	ctx.Locals(AccessLocalsKey, state)
	ctx.SetUserContext(WithAccessContext(ctx.UserContext(), state))
	return ctx.Next()
}

func (c *Controller) requireApproved(ctx *fiber.Ctx) error {
	state, ok := GetRouterAccess(ctx)
	if !ok || !state.IsApproved {
		return ErrNotApproved
	}
	return ctx.Next()
}

func (c *Controller) requireRole(min UserRole) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		state, _ := GetRouterAccess(ctx)
		if err := state.RequireRole(min); err != nil {
			return err
		}
		return ctx.Next()
	}
}

func (c *Controller) warehouseGuard(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "wid")
	if err != nil {
		return err
	}

	state, _ := GetRouterAccess(ctx)
	if err := state.Authorize(id); err != nil {
		return err
	}

	ctx.Locals(warehouseLocalsKey, id)
	return ctx.Next()
}

func (c *Controller) limitAdvisor(ctx *fiber.Ctx) error {
	key := ctx.IP()
	if state, ok := GetRouterAccess(ctx); ok {
		key = state.Email
	}
	if !c.AdvisorLimiter.Allow(key) {
		return ErrRateLimited
	}
	return ctx.Next()
}

// Health pings the database.
func (c *Controller) Health(ctx *fiber.Ctx) error {
	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	if err := c.Repo.DB().PingContext(pingCtx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "database is not reachable").
			WithCode(fiber.StatusServiceUnavailable)
	}
	return ctx.JSON(fiber.Map{"status": "ok"})
}

// Dashboard renders the dashboard shell, or the login page without a session.
func (c *Controller) Dashboard(ctx *fiber.Ctx) error {
	session, err := c.Auther.GetSession(ctx)
	if err != nil {
		return ctx.Render(c.Views.Login, TemplateHelpersWithRouter(ctx, "", fiber.Map{
			"errors": nil,
		}))
	}

	state, err := c.Access.Resolve(ctx.UserContext(), session.GetEmail(), session.GetUserID())
	if err != nil {
		return err
	}
	ctx.Locals(AccessLocalsKey, state)

	if !state.IsApproved {
		return ctx.Redirect("/restricted", fiber.StatusFound)
	}

	return ctx.Render(c.Views.Dashboard, TemplateHelpersWithRouter(ctx, "", fiber.Map{
		"access": state,
	}))
}

// Restricted renders the waiting for approval page.
func (c *Controller) Restricted(ctx *fiber.Ctx) error {
	state, _ := GetRouterAccess(ctx)
	if state != nil && state.IsApproved {
		return ctx.Redirect("/", fiber.StatusFound)
	}
	return ctx.Render(c.Views.Restricted, TemplateHelpersWithRouter(ctx, "", fiber.Map{
		"access": state,
	}))
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession reports whether the remember me box was checked
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (c *Controller) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := bindBody(ctx, payload); err != nil {
		return err
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err, "invalid login payload")
	}

	if !c.LoginLimiter.Allow(ctx.IP() + "|" + NormalizeEmail(payload.Identifier)) {
		return ErrRateLimited
	}

	if c.Debug {
		c.Logger.Debug("login attempt", "identifier", NormalizeEmail(payload.Identifier), "remember_me", payload.RememberMe)
	}

	token, err := c.Auther.Login(ctx, payload)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{"token": token})
}

// RegisterRequest is the sign up payload.
type RegisterRequest struct {
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 200), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, 128)),
		validation.Field(&r.ConfirmPassword, validation.Required, validation.By(ValidateStringEquals(r.Password))),
	)
}

// RegisterPost creates a pending account and signs it in so the client can
// show the restricted page.
func (c *Controller) RegisterPost(ctx *fiber.Ctx) error {
	payload := new(RegisterRequest)
	if err := bindBody(ctx, payload); err != nil {
		return err
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err, "invalid registration payload")
	}

	user, err := c.registerUser.Execute(ctx.UserContext(), RegisterUserMessage{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return err
	}

	token, err := c.Auther.SignIn(ctx, NewIdentityFromUser(user))
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (c *Controller) LogoutPost(ctx *fiber.Ctx) error {
	c.Auther.Logout(ctx)
	return ctx.SendStatus(fiber.StatusNoContent)
}

// PasswordPost changes the password of the signed in account.
func (c *Controller) PasswordPost(ctx *fiber.Ctx) error {
	session, err := c.Auther.GetSession(ctx)
	if err != nil {
		return err
	}

	msg := ChangePasswordMessage{}
	if err := bindBody(ctx, &msg); err != nil {
		return err
	}
	msg.Email = session.GetEmail()

	if err := c.changePassword.Execute(ctx.UserContext(), msg); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// Me returns the access state of the caller, approved or not.
func (c *Controller) Me(ctx *fiber.Ctx) error {
	state, _ := GetRouterAccess(ctx)
	return ctx.JSON(state)
}

func (c *Controller) ListWarehouses(ctx *fiber.Ctx) error {
	state, _ := GetRouterAccess(ctx)
	return ctx.JSON(state.Warehouses)
}

func (c *Controller) Snapshot(ctx *fiber.Ctx) error {
	snap, err := c.Snapshots.Load(ctx.UserContext(), warehouseID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(snap)
}

// ListProducts supports ?q= and ?category= filters.
func (c *Controller) ListProducts(ctx *fiber.Ctx) error {
	products, err := c.Repo.Products().ListForWarehouse(ctx.UserContext(), warehouseID(ctx))
	if err != nil {
		return listFailed(err, "products")
	}
	return ctx.JSON(FilterProducts(products, ctx.Query("q"), ctx.Query("category")))
}

func (c *Controller) CreateProduct(ctx *fiber.Ctx) error {
	msg := SaveProductMessage{}
	if err := bindBody(ctx, &msg); err != nil {
		return err
	}
	msg.ID = uuid.Nil
	return c.saveProductFrom(ctx, msg)
}

func (c *Controller) UpdateProduct(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	msg := SaveProductMessage{}
	if err := bindBody(ctx, &msg); err != nil {
		return err
	}
	msg.ID = id
	return c.saveProductFrom(ctx, msg)
}

func (c *Controller) saveProductFrom(ctx *fiber.Ctx, msg SaveProductMessage) error {
	state, _ := GetRouterAccess(ctx)
	msg.WarehouseID = warehouseID(ctx)
	msg.Actor = state.Actor()

	res, err := c.saveProduct.Execute(ctx.UserContext(), msg)
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if res.Created {
		status = fiber.StatusCreated
	}
	return ctx.Status(status).JSON(res)
}

func (c *Controller) DeleteProduct(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	state, _ := GetRouterAccess(ctx)
	err = c.deleteProduct.Execute(ctx.UserContext(), DeleteProductMessage{
		WarehouseID: warehouseID(ctx),
		ProductID:   id,
		Actor:       state.Actor(),
	})
	if err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// StockOperation applies an INBOUND, ASSIGN or SCRAP operation.
func (c *Controller) StockOperation(ctx *fiber.Ctx) error {
	msg := StockOperationMessage{}
	if err := bindBody(ctx, &msg); err != nil {
		return err
	}

	state, _ := GetRouterAccess(ctx)
	msg.WarehouseID = warehouseID(ctx)
	msg.Actor = state.Actor()
	msg.Operation = OperationType(strings.ToUpper(strings.TrimSpace(string(msg.Operation))))

	res, err := c.stockOperation.Execute(ctx.UserContext(), msg)
	if err != nil {
		return err
	}

	if c.Debug {
		c.Logger.Debug("stock operation", "result", print.MaybePrettyJSON(res))
	}

	return ctx.JSON(res)
}

func (c *Controller) ListEmployees(ctx *fiber.Ctx) error {
	employees, err := c.Repo.Employees().ListForWarehouse(ctx.UserContext(), warehouseID(ctx))
	if err != nil {
		return listFailed(err, "employees")
	}
	return ctx.JSON(employees)
}

func (c *Controller) AddEmployee(ctx *fiber.Ctx) error {
	msg := AddEmployeeMessage{}
	if err := bindBody(ctx, &msg); err != nil {
		return err
	}

	state, _ := GetRouterAccess(ctx)
	msg.WarehouseID = warehouseID(ctx)
	msg.Actor = state.Actor()

	employee, err := c.addEmployee.Execute(ctx.UserContext(), msg)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(employee)
}

func (c *Controller) ListAssignments(ctx *fiber.Ctx) error {
	assignments, err := c.Repo.Assignments().ListForWarehouse(ctx.UserContext(), warehouseID(ctx))
	if err != nil {
		return listFailed(err, "assignments")
	}
	return ctx.JSON(assignments)
}

func (c *Controller) ReturnAsset(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	state, _ := GetRouterAccess(ctx)
	res, err := c.returnAsset.Execute(ctx.UserContext(), ReturnAssetMessage{
		WarehouseID:  warehouseID(ctx),
		AssignmentID: id,
		Actor:        state.Actor(),
	})
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *Controller) ListScrapped(ctx *fiber.Ctx) error {
	items, err := c.Repo.ScrappedItems().ListForWarehouse(ctx.UserContext(), warehouseID(ctx))
	if err != nil {
		return listFailed(err, "scrapped items")
	}
	return ctx.JSON(items)
}

func (c *Controller) ListCategories(ctx *fiber.Ctx) error {
	names, err := c.Repo.Categories().NamesForWarehouse(ctx.UserContext(), warehouseID(ctx))
	if err != nil {
		return listFailed(err, "categories")
	}
	return ctx.JSON(names)
}

func (c *Controller) AddCategory(ctx *fiber.Ctx) error {
	msg := CategoryMessage{}
	if err := bindBody(ctx, &msg); err != nil {
		return err
	}

	state, _ := GetRouterAccess(ctx)
	msg.WarehouseID = warehouseID(ctx)
	msg.Actor = state.Actor()

	names, err := c.categories.Add(ctx.UserContext(), msg)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(names)
}

func (c *Controller) RemoveCategory(ctx *fiber.Ctx) error {
	name, err := url.PathUnescape(ctx.Params("name"))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid category name").
			WithCode(goerrors.CodeBadRequest)
	}

	state, _ := GetRouterAccess(ctx)
	names, err := c.categories.Remove(ctx.UserContext(), CategoryMessage{
		WarehouseID: warehouseID(ctx),
		Name:        name,
		Actor:       state.Actor(),
	})
	if err != nil {
		return err
	}
	return ctx.JSON(names)
}

// ListLogs supports ?action= and ?q= filters.
func (c *Controller) ListLogs(ctx *fiber.Ctx) error {
	logs, err := c.Repo.StockLogs().ListForWarehouse(ctx.UserContext(), warehouseID(ctx))
	if err != nil {
		return listFailed(err, "logs")
	}
	return ctx.JSON(FilterLogs(logs, ctx.Query("action", LogActionAll), ctx.Query("q")))
}

func (c *Controller) Stats(ctx *fiber.Ctx) error {
	products, err := c.Repo.Products().ListForWarehouse(ctx.UserContext(), warehouseID(ctx))
	if err != nil {
		return listFailed(err, "products")
	}
	return ctx.JSON(ComputeStats(products))
}

// DescriptionRequest asks the advisor for a product description.
type DescriptionRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (r DescriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Category, validation.Length(0, 100)),
	)
}

func (c *Controller) GenerateDescription(ctx *fiber.Ctx) error {
	if c.Advisor == nil {
		return errAdvisorUnavailable
	}

	payload := DescriptionRequest{}
	if err := bindBody(ctx, &payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return NewValidationError(err, "invalid description payload")
	}

	text := c.Advisor.GenerateProductDescription(ctx.UserContext(), payload.Name, payload.Category)
	return ctx.JSON(fiber.Map{"description": text})
}

// AnalyzeInventory sends the products of the warehouse to the advisor.
func (c *Controller) AnalyzeInventory(ctx *fiber.Ctx) error {
	if c.Advisor == nil {
		return errAdvisorUnavailable
	}

	products, err := c.Repo.Products().ListForWarehouse(ctx.UserContext(), warehouseID(ctx))
	if err != nil {
		return listFailed(err, "products")
	}

	return ctx.JSON(c.Advisor.AnalyzeInventory(ctx.UserContext(), products))
}

func (c *Controller) ListUsers(ctx *fiber.Ctx) error {
	users, err := c.accounts.ListAccounts(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(users)
}

// ToggleApprovalRequest carries an optional audit reason.
type ToggleApprovalRequest struct {
	Reason string `json:"reason"`
}

func (c *Controller) ToggleApproval(ctx *fiber.Ctx) error {
	email, err := paramEmail(ctx)
	if err != nil {
		return err
	}

	payload := ToggleApprovalRequest{}
	if len(ctx.Body()) > 0 {
		if err := bindBody(ctx, &payload); err != nil {
			return err
		}
	}

	state, _ := GetRouterAccess(ctx)
	user, err := c.accounts.ToggleApproval(ctx.UserContext(), ToggleApprovalMessage{
		Email:  email,
		Reason: payload.Reason,
		Actor:  state.Actor(),
	})
	if err != nil {
		return err
	}
	return ctx.JSON(user)
}

func (c *Controller) ToggleWarehouseAccess(ctx *fiber.Ctx) error {
	email, err := paramEmail(ctx)
	if err != nil {
		return err
	}
	wid, err := paramUUID(ctx, "wid")
	if err != nil {
		return err
	}

	state, _ := GetRouterAccess(ctx)
	user, err := c.accounts.ToggleWarehouseAccess(ctx.UserContext(), ToggleWarehouseAccessMessage{
		Email:       email,
		WarehouseID: wid,
		Actor:       state.Actor(),
	})
	if err != nil {
		return err
	}
	return ctx.JSON(user)
}

func (c *Controller) CreateWarehouse(ctx *fiber.Ctx) error {
	msg := CreateWarehouseMessage{}
	if err := bindBody(ctx, &msg); err != nil {
		return err
	}

	state, _ := GetRouterAccess(ctx)
	msg.Actor = state.Actor()

	warehouse, err := c.accounts.CreateWarehouse(ctx.UserContext(), msg)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(warehouse)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

var errAdvisorUnavailable = goerrors.New("advisor is not configured", goerrors.CategoryInternal).
	WithTextCode("ADVISOR_UNAVAILABLE").
	WithCode(fiber.StatusServiceUnavailable)

func bindBody(ctx *fiber.Ctx, out any) error {
	if err := ctx.BodyParser(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func paramUUID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid "+name+" parameter").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{name: ctx.Params(name)})
	}
	return id, nil
}

func paramEmail(ctx *fiber.Ctx) (string, error) {
	email, err := url.PathUnescape(ctx.Params("email"))
	if err != nil || strings.TrimSpace(email) == "" {
		return "", goerrors.New("invalid email parameter", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return NormalizeEmail(email), nil
}

func warehouseID(ctx *fiber.Ctx) uuid.UUID {
	id, _ := ctx.Locals(warehouseLocalsKey).(uuid.UUID)
	return id
}

func listFailed(err error, what string) error {
	if IsSchemaError(err) {
		return ErrSchemaNotReady
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load "+what)
}
