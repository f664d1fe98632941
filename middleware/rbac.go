package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Permission representa un permiso específico
type Permission string

const (
	// Cierres de caja
	PermCalculateRides Permission = "rides:calculate"
	PermCreateRecord   Permission = "record:create"
	PermReadRecord     Permission = "record:read"
	PermUpdateRecord   Permission = "record:update"
	PermDeleteRecord   Permission = "record:delete"
	PermImportRecords  Permission = "record:import"
	PermExportRecords  Permission = "record:export"

	// Horarios
	PermReadSchedule   Permission = "schedule:read"
	PermManageSchedule Permission = "schedule:manage"

	// Administración
	PermReadUsers     Permission = "user:read"
	PermManageUsers   Permission = "user:manage"
	PermViewStats     Permission = "stats:view"
	PermManageBackups Permission = "backup:manage"
)

var workerPermissions = []Permission{
	PermCalculateRides,
	PermCreateRecord,
	PermReadRecord,
	PermReadSchedule,
}

// rolePermissionsMap mapea roles a sus permisos
var rolePermissionsMap = map[string][]Permission{
	models.RoleWorker: workerPermissions,
	models.RoleManager: append(append([]Permission{}, workerPermissions...),
		PermManageSchedule,
		PermReadUsers,
	),
	models.RoleAdmin: append(append([]Permission{}, workerPermissions...),
		PermManageSchedule,
		PermReadUsers,
		PermUpdateRecord,
		PermDeleteRecord,
		PermImportRecords,
		PermExportRecords,
		PermManageUsers,
		PermViewStats,
		PermManageBackups,
	),
}

var errUserGone = errors.New("usuario del token ya no existe")

// RBACManager resuelve el rol vigente de cada usuario desde la base, con cache.
// El rol del token no se usa para autorizar: un cambio de rol aplica al
// vencer el cache.
type RBACManager struct {
	db       *gorm.DB
	mu       sync.RWMutex
	cache    map[uint]cachedRole
	cacheTTL time.Duration
	now      func() time.Time
}

type cachedRole struct {
	role     string
	cachedAt time.Time
}

func NewRBACManager(db *gorm.DB, cacheTTL time.Duration) *RBACManager {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	utils.Logger.Info("🔐 RBAC initialized",
		zap.Int("total_roles", len(rolePermissionsMap)),
		zap.Duration("cache_ttl", cacheTTL),
	)
	return &RBACManager{
		db:       db,
		cache:    make(map[uint]cachedRole),
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// RequirePermission exige al menos uno de los permisos indicados
func (m *RBACManager) RequirePermission(requiredPermissions ...Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(ContextUserID)
		if userID == 0 {
			utils.LogSecurityEventAdvanced("rbac_no_user", "high", map[string]interface{}{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			})
			utils.HandleAuthError(c, "Usuario no autenticado")
			return
		}

		roleName, err := m.getUserRole(c.Request.Context(), userID)
		if errors.Is(err, errUserGone) {
			utils.HandleAuthError(c, "Usuario no autenticado")
			return
		}
		if err != nil {
			utils.HandleDBError(c, err, "rbac_role_lookup")
			return
		}

		userPermissions := rolePermissionsMap[roleName]
		if !anyGranted(userPermissions, requiredPermissions) {
			utils.LogSecurityEventAdvanced("rbac_permission_denied", "medium", map[string]interface{}{
				"user_id":              userID,
				"role":                 roleName,
				"required_permissions": requiredPermissions,
				"path":                 c.Request.URL.Path,
				"ip":                   c.ClientIP(),
			})
			utils.HandleForbiddenError(c, "No tienes permisos para realizar esta acción")
			return
		}

		c.Set(ContextPermissions, userPermissions)
		c.Set(ContextRole, roleName)
		c.Next()
	}
}

func anyGranted(granted, required []Permission) bool {
	for _, r := range required {
		for _, g := range granted {
			if g == r {
				return true
			}
		}
	}
	return false
}

// getUserRole obtiene el rol del usuario con cache
func (m *RBACManager) getUserRole(ctx context.Context, userID uint) (string, error) {
	now := m.now()

	m.mu.RLock()
	entry, ok := m.cache[userID]
	m.mu.RUnlock()
	if ok && now.Sub(entry.cachedAt) < m.cacheTTL {
		return entry.role, nil
	}

	var user models.User
	err := m.db.WithContext(ctx).Select("id", "role").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errUserGone
	}
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.cache[userID] = cachedRole{role: user.Role, cachedAt: now}
	m.mu.Unlock()

	return user.Role, nil
}

// InvalidateUserCache invalida el cache de un usuario (cambio de rol o baja)
func (m *RBACManager) InvalidateUserCache(userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cache, userID)

	utils.Logger.Debug("User role cache invalidated",
		zap.Uint("user_id", userID),
	)
}

// GetRolePermissions retorna los permisos de un rol
func GetRolePermissions(roleName string) []Permission {
	return rolePermissionsMap[roleName]
}

// AuditLog registra acciones importantes con contexto de usuario y permisos
func AuditLog(c *gin.Context, action string, resourceType string, resourceID uint, details map[string]interface{}) {
	utils.LoggerFrom(c.Request.Context()).Info("AUDIT_LOG",
		zap.Uint("user_id", c.GetUint(ContextUserID)),
		zap.String("username", c.GetString(ContextUsername)),
		zap.String("role", c.GetString(ContextRole)),
		zap.String("action", action),
		zap.String("resource_type", resourceType),
		zap.Uint("resource_id", resourceID),
		zap.String("ip", c.ClientIP()),
		zap.String("user_agent", c.Request.UserAgent()),
		zap.Any("details", utils.SanitizeForLog(details)),
	)
}
