package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexus-ims/nexus-api/internal/application/auth"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
)

// AuthHandler maneja registro de tenant, alta de usuarios y login.
type AuthHandler struct {
	uc *auth.AuthUseCase
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// RegisterTenant godoc
// @Summary      Registrar organización
// @Description  Crea el tenant y su primer usuario con rol ADMIN
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterTenantRequest  true  "tenant_name, email, password"
// @Success      201   {object}  dto.RegisterTenantResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) RegisterTenant(c *fiber.Ctx) error {
	var in dto.RegisterTenantRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.TenantName == "" || in.Email == "" || in.Password == "" {
		return badRequest(c, "tenant_name, email y password son requeridos")
	}
	if len(in.Password) < 8 {
		return badRequest(c, "password debe tener al menos 8 caracteres")
	}
	out, err := h.uc.RegisterTenant(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RegisterUser godoc
// @Summary      Crear usuario en el tenant
// @Tags         auth
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterUserRequest  true  "email, password, role"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/users [post]
func (h *AuthHandler) RegisterUser(c *fiber.Ctx) error {
	var in dto.RegisterUserRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Email == "" || in.Password == "" {
		return badRequest(c, "email y password son requeridos")
	}
	if len(in.Password) < 8 {
		return badRequest(c, "password debe tener al menos 8 caracteres")
	}
	out, err := h.uc.RegisterUser(GetTenantID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Email == "" || in.Password == "" {
		return badRequest(c, "email y password son requeridos")
	}
	out, err := h.uc.Login(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// rolesAll todos los roles autenticados.
var rolesAll = []string{entity.RoleAdmin, entity.RoleManager, entity.RoleOperator, entity.RoleViewer}

// rolesOperate roles que pueden mover stock.
var rolesOperate = []string{entity.RoleAdmin, entity.RoleManager, entity.RoleOperator}

// rolesManage roles que administran catálogo y flujos de órdenes.
var rolesManage = []string{entity.RoleAdmin, entity.RoleManager}
