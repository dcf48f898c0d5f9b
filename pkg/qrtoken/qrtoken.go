// Package qrtoken emite los tokens portadores impresos en el QR del kit.
// El token solo sirve como llave de búsqueda para confirmar la entrega.
package qrtoken

import (
	"strings"

	"github.com/google/uuid"
)

// New devuelve un token opaco de 64 caracteres hexadecimales (dos UUID v4 aleatorios).
func New() string {
	a := strings.ReplaceAll(uuid.New().String(), "-", "")
	b := strings.ReplaceAll(uuid.New().String(), "-", "")
	return a + b
}

// Valid verifica el formato del token recibido desde el escáner.
func Valid(token string) bool {
	if len(token) != 64 {
		return false
	}
	for _, c := range token {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
