package errors

import "fmt"

// ErrNotFound signale une session, dimension, option ou combinaison inexistante
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s introuvable : %s", e.Resource, e.ID)
}

// ErrValidation signale une entrée inutilisable
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "données invalides"
}

// ErrConflict signale un SKU déjà porté par une autre combinaison ou un autre produit
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflit"
}
