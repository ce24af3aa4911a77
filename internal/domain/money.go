package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount representa um valor monetário em centavos (unidade mínima da moeda).
// Nunca usamos float para evitar erros de arredondamento em capturas e
// cancelamentos parciais.
type Amount int64

// Cents cria um Amount a partir de um valor em centavos
func Cents(c int64) Amount {
	return Amount(c)
}

// ParseAmount converte um valor decimal ("150.25", "150,25", "25") em centavos.
// Aceita no máximo duas casas decimais.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, NewValidationError("amount", "valor vazio")
	}
	if strings.HasPrefix(s, "-") {
		return 0, NewValidationError("amount", "valor negativo")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, NewValidationError("amount", fmt.Sprintf("valor %q deve ter no máximo 2 casas decimais", s))
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, NewValidationError("amount", fmt.Sprintf("valor %q inválido", s))
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (math.MaxInt64-99)/100 {
		return 0, NewValidationError("amount", fmt.Sprintf("valor %q fora do intervalo", s))
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, NewValidationError("amount", fmt.Sprintf("valor %q inválido", s))
	}

	return Amount(units*100 + cents), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MustParseAmount é como ParseAmount mas entra em pânico em caso de erro.
// Útil em testes e constantes.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Cents retorna o valor em centavos
func (a Amount) Cents() int64 {
	return int64(a)
}

// String formata o valor com duas casas decimais (ex: "150.25")
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// IsPositive retorna true se o valor for maior que zero
func (a Amount) IsPositive() bool {
	return a > 0
}
