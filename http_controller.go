package identity

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/nyaruka/phonenumbers"
)

// AuthControllerRoutes holds the mounted paths
type AuthControllerRoutes struct {
	Register string
	Login    string
	Validate string
}

// AuthController exposes the JSON endpoints for registration, login, and
// token validation
type AuthController struct {
	Debug  bool
	Logger Logger
	Auther Authenticator
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register: "/register",
			Login:    "/login",
			Validate: "/validate",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// WithAuther sets the authenticator
func WithAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerDebug toggles payload dumps
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// RegisterAuthRoutes mounts the auth endpoints on the given router, usually
// an /auth group
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegistrationCreate)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Get(controller.Routes.Validate, controller.TokenValidate)

	return controller
}

// RegistrationCreatePayload is the register request body
type RegistrationCreatePayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone_number"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Role, validation.In("", RoleUser, RoleAdmin)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) RegistrationCreate(ctx *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return respondError(ctx, fiber.StatusBadRequest, "Error parsing body")
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload: %v", err)
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "Error validating payload",
			"validation": formatValidationErrors(err),
		})
	}

	if a.Debug {
		dump := *payload
		dump.Password = "[REDACTED]"
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(dump))
		fmt.Println("============================")
	}

	msg := ProvisionAccountMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Role:     payload.Role,
		Password: payload.Password,
	}

	result, err := a.Auther.Register(ctx.Context(), msg)
	if err != nil {
		a.Logger.Error("register execute: %v", err)
		return respondAuthError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(result)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return respondError(ctx, fiber.StatusBadRequest, "Error parsing body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "Error validating payload",
			"validation": formatValidationErrors(err),
		})
	}

	result, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Warn("login failed for %s: %v", payload.Email, err)
		return respondAuthError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(result)
}

// TokenValidate answers with the boolean verdict for the token query param
func (a *AuthController) TokenValidate(ctx *fiber.Ctx) error {
	token := ctx.Query("token")
	if token == "" {
		return respondError(ctx, fiber.StatusBadRequest, "missing token query parameter")
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"valid": a.Auther.ValidateToken(token),
	})
}

// ValidatePhoneNumber accepts empty values, otherwise the number must parse
// and be valid for its region
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return fmt.Errorf("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("must be a valid phone number")
	}

	return nil
}

func respondError(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// respondAuthError maps structured error categories onto HTTP statuses. The
// body carries the text code only; internals stay out of responses.
func respondAuthError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := ""

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		code = richErr.TextCode
		switch richErr.Category {
		case goerrors.CategoryConflict, goerrors.CategoryOperation,
			goerrors.CategoryValidation, goerrors.CategoryBadInput:
			status = fiber.StatusBadRequest
		case goerrors.CategoryNotFound:
			status = fiber.StatusNotFound
		case goerrors.CategoryAuth:
			status = fiber.StatusUnauthorized
		}
	}

	body := fiber.Map{"error": messageForStatus(status)}
	if code != "" {
		body["code"] = code
	}

	return ctx.Status(status).JSON(body)
}

func messageForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "Bad Request"
	case fiber.StatusNotFound:
		return "Not Found"
	case fiber.StatusUnauthorized:
		return "Unauthorized"
	}
	return "Internal Server Error"
}

func formatValidationErrors(err error) map[string]string {
	out := map[string]string{}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}
