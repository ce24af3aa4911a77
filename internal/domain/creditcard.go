package domain

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Brand representa a bandeira do cartão
type Brand int

const (
	BrandVisa Brand = iota + 1
	BrandMaster
	BrandAmex
	BrandElo
	BrandAura
	BrandJCB
	BrandDiners
	BrandDiscover
	BrandHipercard
	BrandHiper
)

var brandNames = map[Brand]string{
	BrandVisa:      "Visa",
	BrandMaster:    "Master",
	BrandAmex:      "Amex",
	BrandElo:       "Elo",
	BrandAura:      "Aura",
	BrandJCB:       "JCB",
	BrandDiners:    "Diners",
	BrandDiscover:  "Discover",
	BrandHipercard: "Hipercard",
	BrandHiper:     "Hiper",
}

func (b Brand) String() string {
	if name, ok := brandNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Brand(%d)", int(b))
}

// ParseBrand converte o nome usado no gateway em Brand (sem diferenciar maiúsculas)
func ParseBrand(s string) (Brand, error) {
	for b, name := range brandNames {
		if strings.EqualFold(name, s) {
			return b, nil
		}
	}
	return 0, NewValidationError("creditCard.brand", fmt.Sprintf("bandeira desconhecida: %q", s))
}

// Expiry é a validade do cartão com granularidade de mês/ano
type Expiry struct {
	Month time.Month
	Year  int
}

// ExpiryFromTime extrai mês e ano de uma data (o dia é ignorado)
func ExpiryFromTime(t time.Time) Expiry {
	return Expiry{Month: t.Month(), Year: t.Year()}
}

// ParseExpiry lê uma validade no formato MM/YYYY
func ParseExpiry(s string) (Expiry, error) {
	mm, yyyy, ok := strings.Cut(s, "/")
	if !ok {
		return Expiry{}, NewValidationError("creditCard.expirationDate", fmt.Sprintf("validade %q fora do formato MM/YYYY", s))
	}
	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return Expiry{}, NewValidationError("creditCard.expirationDate", fmt.Sprintf("mês inválido em %q", s))
	}
	year, err := strconv.Atoi(yyyy)
	if err != nil || len(yyyy) != 4 {
		return Expiry{}, NewValidationError("creditCard.expirationDate", fmt.Sprintf("ano inválido em %q", s))
	}
	return Expiry{Month: time.Month(month), Year: year}, nil
}

// String formata como MM/YYYY, o formato do gateway
func (e Expiry) String() string {
	return fmt.Sprintf("%02d/%04d", int(e.Month), e.Year)
}

// IsZero retorna true se a validade não foi informada
func (e Expiry) IsZero() bool {
	return e.Month == 0 && e.Year == 0
}

// ExpiredAt retorna true se o cartão já estava vencido no mês de t
func (e Expiry) ExpiredAt(t time.Time) bool {
	if e.Year != t.Year() {
		return e.Year < t.Year()
	}
	return e.Month < t.Month()
}

// CreditCard representa os dados do cartão. CardNumber e SecurityCode são
// sensíveis: nunca devem aparecer em logs.
type CreditCard struct {
	CardNumber   string
	Holder       string
	Expiry       Expiry
	SecurityCode string
	Brand        Brand
	SaveCard     bool

	// CardToken só é preenchido depois que o gateway tokeniza o cartão
	CardToken uuid.UUID
}

// NewCreditCard cria os dados de um cartão a partir do número completo
func NewCreditCard(number, holder string, expiration time.Time, securityCode string, brand Brand) CreditCard {
	return CreditCard{
		CardNumber:   number,
		Holder:       holder,
		Expiry:       ExpiryFromTime(expiration),
		SecurityCode: securityCode,
		Brand:        brand,
	}
}

// NewTokenizedCard cria um cartão a partir de um token devolvido pelo gateway
func NewTokenizedCard(token uuid.UUID, brand Brand) CreditCard {
	return CreditCard{CardToken: token, Brand: brand}
}

// WithSaveCard retorna uma cópia que pede a tokenização do cartão
func (c CreditCard) WithSaveCard(save bool) CreditCard {
	c.SaveCard = save
	return c
}

// HasToken retorna true se o gateway já tokenizou o cartão
func (c CreditCard) HasToken() bool {
	return c.CardToken != uuid.Nil
}

// MaskedNumber retorna o número com apenas os 4 últimos dígitos visíveis
func (c CreditCard) MaskedNumber() string {
	digits := onlyDigits(c.CardNumber)
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

// String nunca expõe o número completo nem o código de segurança
func (c CreditCard) String() string {
	return fmt.Sprintf("%s %s %s", c.Brand, c.MaskedNumber(), c.Expiry)
}

// LogValue implementa slog.LogValuer mascarando dados sensíveis
func (c CreditCard) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("brand", c.Brand.String()),
		slog.String("number", c.MaskedNumber()),
		slog.Bool("tokenized", c.HasToken()),
	)
}

// GetBrand retorna a bandeira do cartão
func (c CreditCard) GetBrand() Brand {
	return c.Brand
}

func (c *CreditCard) validate() error {
	if c == nil {
		return NewValidationError("payment.creditCard", "cartão é obrigatório para pagamento com cartão de crédito")
	}
	if _, ok := brandNames[c.Brand]; !ok {
		return NewValidationError("payment.creditCard.brand", "bandeira é obrigatória")
	}
	if c.HasToken() {
		return nil
	}
	if len(onlyDigits(c.CardNumber)) < 12 {
		return NewValidationError("payment.creditCard.cardNumber", "número do cartão é obrigatório")
	}
	if strings.TrimSpace(c.Holder) == "" {
		return NewValidationError("payment.creditCard.holder", "nome do portador é obrigatório")
	}
	if c.Expiry.IsZero() || c.Expiry.Month < time.January || c.Expiry.Month > time.December {
		return NewValidationError("payment.creditCard.expirationDate", "validade é obrigatória")
	}
	code := c.SecurityCode
	if len(code) < 3 || len(code) > 4 || onlyDigits(code) != code {
		return NewValidationError("payment.creditCard.securityCode", "código de segurança deve ter 3 ou 4 dígitos")
	}
	return nil
}

func (c *CreditCard) clone() *CreditCard {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
