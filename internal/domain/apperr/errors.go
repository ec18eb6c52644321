package apperr

import "errors"

// Erreurs métier partagées, mappées vers des statuts HTTP par la couche delivery.
var (
	ErrNotFound     = errors.New("ressource non trouvée")
	ErrConflict     = errors.New("la ressource existe déjà")
	ErrUnauthorized = errors.New("identifiants invalides")
	ErrLocked       = errors.New("compte verrouillé")
	ErrValidation   = errors.New("données invalides")
)

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsLocked(err error) bool       { return errors.Is(err, ErrLocked) }
func IsValidation(err error) bool   { return errors.Is(err, ErrValidation) }
