package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentType representa o meio de pagamento
type PaymentType int

const (
	PaymentTypeCreditCard PaymentType = iota + 1
	PaymentTypeBoleto
	PaymentTypeEletronicTransfer
)

func (t PaymentType) String() string {
	switch t {
	case PaymentTypeCreditCard:
		return "CreditCard"
	case PaymentTypeBoleto:
		return "Boleto"
	case PaymentTypeEletronicTransfer:
		return "EletronicTransfer"
	default:
		return fmt.Sprintf("PaymentType(%d)", int(t))
	}
}

// ParsePaymentType converte o nome usado no gateway em PaymentType
func ParsePaymentType(s string) (PaymentType, error) {
	for _, t := range []PaymentType{PaymentTypeCreditCard, PaymentTypeBoleto, PaymentTypeEletronicTransfer} {
		if strings.EqualFold(t.String(), s) {
			return t, nil
		}
	}
	return 0, NewValidationError("payment.type", fmt.Sprintf("tipo de pagamento desconhecido: %q", s))
}

// Provider representa o provedor que processa o meio de pagamento
type Provider string

const (
	ProviderSimulado       Provider = "Simulado"
	ProviderCielo          Provider = "Cielo"
	ProviderBradesco       Provider = "Bradesco"
	ProviderBancoDoBrasil  Provider = "BancoDoBrasil"
	ProviderBradesco2      Provider = "Bradesco2"
	ProviderBancoDoBrasil2 Provider = "BancoDoBrasil2"
	ProviderBancoDoBrasil3 Provider = "BancoDoBrasil3"
)

// ProvidersFor lista os provedores aceitos para cada tipo de pagamento
func ProvidersFor(t PaymentType) []Provider {
	switch t {
	case PaymentTypeCreditCard:
		return []Provider{ProviderCielo, ProviderSimulado}
	case PaymentTypeBoleto:
		return []Provider{ProviderBradesco2, ProviderBancoDoBrasil2, ProviderBancoDoBrasil3, ProviderSimulado}
	case PaymentTypeEletronicTransfer:
		return []Provider{ProviderBradesco, ProviderBancoDoBrasil, ProviderSimulado}
	default:
		return nil
	}
}

// Currency é o código ISO da moeda
type Currency string

const (
	CurrencyBRL Currency = "BRL"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// MaxSoftDescriptorLength é o tamanho máximo aceito pelo gateway para o texto da fatura
const MaxSoftDescriptorLength = 13

// Link representa um link HATEOAS devolvido pelo gateway
type Link struct {
	Method string
	Rel    string
	Href   string
}

// Boleto contém os dados específicos de pagamento por boleto
type Boleto struct {
	Number         string
	Instructions   string
	Assignor       string
	Demonstrative  string
	Identification string
	ExpirationDate time.Time
}

// Payment representa um pagamento. Os campos do bloco "gateway" só são
// preenchidos a partir das respostas do gateway.
type Payment struct {
	Type             PaymentType
	Provider         Provider
	Amount           Amount
	Currency         Currency
	Country          string
	Installments     int
	Capture          bool
	SoftDescriptor   string
	CreditCard       *CreditCard
	Boleto           *Boleto
	ReturnURL        string
	RecurrentPayment *RecurrentPayment

	// gateway
	PaymentID         uuid.UUID
	Status            Status
	ReturnCode        string
	ReturnMessage     string
	ProofOfSale       string
	Tid               string
	AuthorizationCode string
	CapturedAmount    Amount
	VoidedAmount      Amount
	BarCodeNumber     string
	DigitableLine     string
	URL               string
	ReceivedDate      time.Time
	Links             []Link
}

// PaymentOption customiza um pagamento em construção
type PaymentOption func(*Payment)

// WithCurrency define a moeda (padrão BRL)
func WithCurrency(c Currency) PaymentOption {
	return func(p *Payment) { p.Currency = c }
}

// WithInstallments define o número de parcelas (padrão 1)
func WithInstallments(n int) PaymentOption {
	return func(p *Payment) { p.Installments = n }
}

// WithCapture define se a autorização deve ser capturada na mesma chamada
func WithCapture(capture bool) PaymentOption {
	return func(p *Payment) { p.Capture = capture }
}

// WithSoftDescriptor define o texto exibido na fatura do portador
func WithSoftDescriptor(s string) PaymentOption {
	return func(p *Payment) { p.SoftDescriptor = s }
}

// WithProvider define o provedor
func WithProvider(provider Provider) PaymentOption {
	return func(p *Payment) { p.Provider = provider }
}

// WithRecurrentPayment transforma o pagamento em recorrente
func WithRecurrentPayment(r RecurrentPayment) PaymentOption {
	return func(p *Payment) { p.RecurrentPayment = &r }
}

// NewCreditCardPayment cria um pagamento com cartão de crédito
func NewCreditCardPayment(amount Amount, card CreditCard, opts ...PaymentOption) Payment {
	p := Payment{
		Type:         PaymentTypeCreditCard,
		Provider:     ProviderSimulado,
		Amount:       amount,
		Currency:     CurrencyBRL,
		Installments: 1,
		CreditCard:   &card,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// NewBoletoPayment cria um pagamento por boleto
func NewBoletoPayment(amount Amount, provider Provider, boleto Boleto, opts ...PaymentOption) Payment {
	p := Payment{
		Type:         PaymentTypeBoleto,
		Provider:     provider,
		Amount:       amount,
		Currency:     CurrencyBRL,
		Installments: 1,
		Boleto:       &boleto,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// NewTransferPayment cria um pagamento por transferência eletrônica
func NewTransferPayment(amount Amount, provider Provider, returnURL string, opts ...PaymentOption) Payment {
	p := Payment{
		Type:         PaymentTypeEletronicTransfer,
		Provider:     provider,
		Amount:       amount,
		Currency:     CurrencyBRL,
		Installments: 1,
		ReturnURL:    returnURL,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// GetStatus retorna o status atual
func (p Payment) GetStatus() Status {
	return p.Status
}

// GetAmount retorna o valor autorizado
func (p Payment) GetAmount() Amount {
	return p.Amount
}

// GetPaymentType retorna o meio de pagamento
func (p Payment) GetPaymentType() PaymentType {
	return p.Type
}

// IsDenied retorna true se o gateway negou a autorização
func (p Payment) IsDenied() bool {
	return p.Status == StatusDenied
}

// IsPaid verifica se o pagamento foi confirmado (capturado)
func (p Payment) IsPaid() bool {
	return p.Status == StatusPaymentConfirmed
}

// CapturableAmount é o saldo que ainda pode ser capturado. Só existe uma
// captura por autorização: depois dela o saldo é zero.
func (p Payment) CapturableAmount() Amount {
	if p.Status != StatusAuthorized || p.CapturedAmount > 0 {
		return 0
	}
	return p.Amount - p.VoidedAmount
}

// CancelableAmount é o saldo que ainda pode ser cancelado
func (p Payment) CancelableAmount() Amount {
	switch p.Status {
	case StatusAuthorized:
		return p.Amount - p.VoidedAmount
	case StatusPaymentConfirmed:
		return p.CapturedAmount - p.VoidedAmount
	default:
		return 0
	}
}

// IsTerminal retorna true se nenhuma operação pode mais alterar o pagamento
func (p Payment) IsTerminal() bool {
	switch p.Status {
	case StatusDenied, StatusVoided, StatusRefunded, StatusAborted:
		return true
	case StatusPaymentConfirmed:
		return p.CancelableAmount() == 0
	default:
		return false
	}
}

// HasRecurrence retorna true se o pagamento possui agendamento recorrente
func (p Payment) HasRecurrence() bool {
	return p.RecurrentPayment != nil
}

// Clone retorna uma cópia profunda, sem compartilhar ponteiros com o original
func (p Payment) Clone() Payment {
	cp := p
	cp.CreditCard = p.CreditCard.clone()
	if p.Boleto != nil {
		b := *p.Boleto
		cp.Boleto = &b
	}
	if p.RecurrentPayment != nil {
		r := p.RecurrentPayment.Clone()
		cp.RecurrentPayment = &r
	}
	if p.Links != nil {
		cp.Links = append([]Link(nil), p.Links...)
	}
	return cp
}

// Validate verifica as combinações estruturalmente obrigatórias para o meio de pagamento
func (p Payment) Validate() error {
	if !p.Amount.IsPositive() {
		return NewValidationError("payment.amount", "valor deve ser maior que zero")
	}
	if p.Installments < 1 {
		return NewValidationError("payment.installments", "número de parcelas deve ser no mínimo 1")
	}
	if len([]rune(p.SoftDescriptor)) > MaxSoftDescriptorLength {
		return NewValidationError("payment.softDescriptor",
			fmt.Sprintf("deve ter no máximo %d caracteres", MaxSoftDescriptorLength))
	}
	if p.Currency == "" {
		return NewValidationError("payment.currency", "moeda é obrigatória")
	}
	switch p.Type {
	case PaymentTypeCreditCard:
		if err := p.CreditCard.validate(); err != nil {
			return err
		}
	case PaymentTypeBoleto:
		if p.Boleto == nil || strings.TrimSpace(p.Boleto.Number) == "" {
			return NewValidationError("payment.boletoNumber", "número do boleto é obrigatório")
		}
	case PaymentTypeEletronicTransfer:
		if strings.TrimSpace(p.ReturnURL) == "" {
			return NewValidationError("payment.returnUrl", "URL de retorno é obrigatória para transferência eletrônica")
		}
	default:
		return NewValidationError("payment.type", "tipo de pagamento é obrigatório")
	}
	if err := p.validateProvider(); err != nil {
		return err
	}

	if p.RecurrentPayment != nil {
		if p.Type != PaymentTypeCreditCard {
			return NewValidationError("payment.recurrentPayment", "recorrência só é suportada com cartão de crédito")
		}
		if err := p.RecurrentPayment.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (p Payment) validateProvider() error {
	if p.Provider == "" {
		return NewValidationError("payment.provider", "provedor é obrigatório")
	}
	for _, allowed := range ProvidersFor(p.Type) {
		if allowed == p.Provider {
			return nil
		}
	}
	return NewValidationError("payment.provider",
		fmt.Sprintf("provedor %s não é aceito para %s", p.Provider, p.Type))
}
