package services

import (
	"fmt"

	"github.com/NicolasR-dev/dinocars-web/utils"
)

var (
	ErrRecordNotFound     = fmt.Errorf("registro %w", utils.ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("usuario %w", utils.ErrNotFound)
	ErrScheduleNotFound   = fmt.Errorf("turno %w", utils.ErrNotFound)
	ErrUsernameTaken      = fmt.Errorf("%w: el nombre de usuario ya existe", utils.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: usuario o contraseña incorrectos", utils.ErrUnauthorized)
	ErrTokenRevoked       = fmt.Errorf("%w: token revocado", utils.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: token inválido", utils.ErrUnauthorized)
	ErrSelfDelete         = fmt.Errorf("%w: no puedes eliminar tu propio usuario", utils.ErrForbidden)
	ErrMissingShiftPreset = fmt.Errorf("%w: el usuario no tiene ese turno predefinido; indica start_time y end_time", utils.ErrInvalidInput)
	ErrLockNotObtained    = fmt.Errorf("%w: hay otro cierre en curso, intenta nuevamente", utils.ErrConflict)
)
