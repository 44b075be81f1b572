package inventory

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/perecederos-api/internal/domain"
)

// NormalizeItem recorta espacios y normaliza a NFC el nombre del ítem, para que "café" escrito
// con o sin caracteres combinados apunte a los mismos lotes.
func NormalizeItem(item string) (string, error) {
	item = norm.NFC.String(strings.TrimSpace(item))
	if item == "" {
		return "", domain.ErrInvalidInput
	}
	return item, nil
}
