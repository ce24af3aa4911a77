package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/magnani/cielo-ecommerce/internal/domain"
)

const orderDateLayout = "2006-01-02"

// OrderFile é o formato YAML aceito por "cielo create --file"
type OrderFile struct {
	MerchantOrderID string        `yaml:"merchantOrderId"`
	Customer        OrderCustomer `yaml:"customer"`
	Payment         OrderPayment  `yaml:"payment"`
}

// OrderCustomer descreve o comprador
type OrderCustomer struct {
	Name    string        `yaml:"name"`
	Address *OrderAddress `yaml:"address,omitempty"`
}

// OrderAddress descreve o endereço do comprador
type OrderAddress struct {
	Street     string `yaml:"street"`
	Number     string `yaml:"number"`
	Complement string `yaml:"complement,omitempty"`
	ZipCode    string `yaml:"zipCode"`
	City       string `yaml:"city"`
	State      string `yaml:"state"`
	Country    string `yaml:"country"`
}

// OrderPayment descreve o pagamento. amount é em reais ("150.08").
type OrderPayment struct {
	Type             string          `yaml:"type"`
	Amount           string          `yaml:"amount"`
	Provider         string          `yaml:"provider,omitempty"`
	Currency         string          `yaml:"currency,omitempty"`
	Installments     int             `yaml:"installments,omitempty"`
	Capture          bool            `yaml:"capture,omitempty"`
	SoftDescriptor   string          `yaml:"softDescriptor,omitempty"`
	ReturnURL        string          `yaml:"returnUrl,omitempty"`
	CreditCard       *OrderCard      `yaml:"creditCard,omitempty"`
	Boleto           *OrderBoleto    `yaml:"boleto,omitempty"`
	RecurrentPayment *OrderRecurrent `yaml:"recurrentPayment,omitempty"`
}

// OrderCard descreve o cartão (número completo ou token)
type OrderCard struct {
	CardNumber     string `yaml:"cardNumber,omitempty"`
	Holder         string `yaml:"holder,omitempty"`
	ExpirationDate string `yaml:"expirationDate,omitempty"` // MM/AAAA
	SecurityCode   string `yaml:"securityCode,omitempty"`
	Brand          string `yaml:"brand"`
	SaveCard       bool   `yaml:"saveCard,omitempty"`
	CardToken      string `yaml:"cardToken,omitempty"`
}

// OrderBoleto descreve os dados do boleto
type OrderBoleto struct {
	Number         string `yaml:"number"`
	Instructions   string `yaml:"instructions,omitempty"`
	Assignor       string `yaml:"assignor,omitempty"`
	Demonstrative  string `yaml:"demonstrative,omitempty"`
	Identification string `yaml:"identification,omitempty"`
	ExpirationDate string `yaml:"expirationDate,omitempty"`
}

// OrderRecurrent descreve o agendamento recorrente
type OrderRecurrent struct {
	Interval  string `yaml:"interval"`
	StartDate string `yaml:"startDate,omitempty"`
	EndDate   string `yaml:"endDate,omitempty"`
}

// LoadOrder lê e converte um arquivo de pedido
func LoadOrder(path string) (domain.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("erro ao ler pedido: %w", err)
	}
	return ParseOrder(data)
}

// ParseOrder decodifica o YAML e monta a transação validada
func ParseOrder(data []byte) (domain.Transaction, error) {
	var order OrderFile
	if err := yaml.Unmarshal(data, &order); err != nil {
		return domain.Transaction{}, fmt.Errorf("erro ao decodificar pedido: %w", err)
	}
	return order.Transaction()
}

// Transaction converte o pedido em domain.Transaction
func (o OrderFile) Transaction() (domain.Transaction, error) {
	customer := domain.NewCustomer(o.Customer.Name)
	if a := o.Customer.Address; a != nil {
		customer = customer.WithAddress(domain.Address{
			Street:     a.Street,
			Number:     a.Number,
			Complement: a.Complement,
			ZipCode:    a.ZipCode,
			City:       a.City,
			State:      a.State,
			Country:    a.Country,
		})
	}

	payment, err := o.Payment.payment()
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.NewTransaction(o.MerchantOrderID, customer, payment)
}

func (p OrderPayment) payment() (domain.Payment, error) {
	paymentType, err := domain.ParsePaymentType(p.Type)
	if err != nil {
		return domain.Payment{}, err
	}
	amount, err := domain.ParseAmount(p.Amount)
	if err != nil {
		return domain.Payment{}, domain.NewValidationError("payment.amount", err.Error())
	}

	var opts []domain.PaymentOption
	if p.Provider != "" {
		opts = append(opts, domain.WithProvider(domain.Provider(p.Provider)))
	}
	if p.Currency != "" {
		opts = append(opts, domain.WithCurrency(domain.Currency(p.Currency)))
	}
	if p.Installments != 0 {
		opts = append(opts, domain.WithInstallments(p.Installments))
	}
	if p.Capture {
		opts = append(opts, domain.WithCapture(true))
	}
	if p.SoftDescriptor != "" {
		opts = append(opts, domain.WithSoftDescriptor(p.SoftDescriptor))
	}
	if p.RecurrentPayment != nil {
		r, err := p.RecurrentPayment.recurrent()
		if err != nil {
			return domain.Payment{}, err
		}
		opts = append(opts, domain.WithRecurrentPayment(r))
	}

	provider := domain.Provider(p.Provider)
	if provider == "" {
		provider = domain.ProvidersFor(paymentType)[0]
	}

	switch paymentType {
	case domain.PaymentTypeCreditCard:
		if p.CreditCard == nil {
			return domain.Payment{}, domain.NewValidationError("payment.creditCard", "cartão é obrigatório para pagamento com cartão de crédito")
		}
		card, err := p.CreditCard.card()
		if err != nil {
			return domain.Payment{}, err
		}
		return domain.NewCreditCardPayment(amount, card, opts...), nil
	case domain.PaymentTypeBoleto:
		if p.Boleto == nil {
			return domain.Payment{}, domain.NewValidationError("payment.boleto", "dados do boleto são obrigatórios")
		}
		boleto, err := p.Boleto.boleto()
		if err != nil {
			return domain.Payment{}, err
		}
		return domain.NewBoletoPayment(amount, provider, boleto, opts...), nil
	default:
		return domain.NewTransferPayment(amount, provider, p.ReturnURL, opts...), nil
	}
}

func (c OrderCard) card() (domain.CreditCard, error) {
	brand, err := domain.ParseBrand(c.Brand)
	if err != nil {
		return domain.CreditCard{}, err
	}
	if c.CardToken != "" {
		token, err := uuid.Parse(c.CardToken)
		if err != nil {
			return domain.CreditCard{}, domain.NewValidationError("payment.creditCard.cardToken", "token inválido")
		}
		return domain.NewTokenizedCard(token, brand), nil
	}

	expiry, err := domain.ParseExpiry(c.ExpirationDate)
	if err != nil {
		return domain.CreditCard{}, err
	}
	card := domain.CreditCard{
		CardNumber:   c.CardNumber,
		Holder:       c.Holder,
		Expiry:       expiry,
		SecurityCode: c.SecurityCode,
		Brand:        brand,
	}
	return card.WithSaveCard(c.SaveCard), nil
}

func (b OrderBoleto) boleto() (domain.Boleto, error) {
	boleto := domain.Boleto{
		Number:         b.Number,
		Instructions:   b.Instructions,
		Assignor:       b.Assignor,
		Demonstrative:  b.Demonstrative,
		Identification: b.Identification,
	}
	if b.ExpirationDate != "" {
		t, err := time.Parse(orderDateLayout, b.ExpirationDate)
		if err != nil {
			return domain.Boleto{}, domain.NewValidationError("payment.boleto.expirationDate", "data deve estar no formato AAAA-MM-DD")
		}
		boleto.ExpirationDate = t
	}
	return boleto, nil
}

func (r OrderRecurrent) recurrent() (domain.RecurrentPayment, error) {
	interval, err := domain.ParseInterval(r.Interval)
	if err != nil {
		return domain.RecurrentPayment{}, err
	}
	start, err := parseOptionalDate("payment.recurrentPayment.startDate", r.StartDate)
	if err != nil {
		return domain.RecurrentPayment{}, err
	}
	end, err := parseOptionalDate("payment.recurrentPayment.endDate", r.EndDate)
	if err != nil {
		return domain.RecurrentPayment{}, err
	}
	return domain.NewRecurrentPayment(interval, start, end), nil
}

func parseOptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(orderDateLayout, s)
	if err != nil {
		return nil, domain.NewValidationError(field, "data deve estar no formato AAAA-MM-DD")
	}
	return &t, nil
}
