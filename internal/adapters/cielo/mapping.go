package cielo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magnani/cielo-ecommerce/internal/domain"
)

// ──────────────────────────────────────────────
// domínio → wire
// ──────────────────────────────────────────────

func saleFromTransaction(txn domain.Transaction, now time.Time) Sale {
	sale := Sale{
		MerchantOrderID: txn.MerchantOrderID,
		Customer:        customerToWire(txn.Customer),
		Payment:         paymentToWire(txn.Payment, now),
	}
	return sale
}

func customerToWire(c domain.Customer) *SaleCustomer {
	out := &SaleCustomer{Name: c.Name}
	if a := c.Address; a != nil {
		out.Address = &SaleAddress{
			Street:     a.Street,
			Number:     a.Number,
			Complement: a.Complement,
			ZipCode:    a.ZipCode,
			City:       a.City,
			State:      a.State,
			Country:    a.Country,
		}
	}
	return out
}

func paymentToWire(p domain.Payment, now time.Time) SalePayment {
	out := SalePayment{
		Type:           p.Type.String(),
		Amount:         p.Amount.Cents(),
		Currency:       string(p.Currency),
		Country:        p.Country,
		Provider:       string(p.Provider),
		Installments:   p.Installments,
		Capture:        p.Capture,
		SoftDescriptor: p.SoftDescriptor,
		ReturnURL:      p.ReturnURL,
	}

	if c := p.CreditCard; c != nil {
		out.CreditCard = &SaleCreditCard{
			Holder:   c.Holder,
			SaveCard: c.SaveCard,
			Brand:    c.Brand.String(),
		}
		if c.HasToken() {
			out.CreditCard.CardToken = c.CardToken.String()
		} else {
			out.CreditCard.CardNumber = c.CardNumber
			out.CreditCard.ExpirationDate = c.Expiry.String()
			out.CreditCard.SecurityCode = c.SecurityCode
		}
	}

	if b := p.Boleto; b != nil {
		out.BoletoNumber = b.Number
		out.Assignor = b.Assignor
		out.Demonstrative = b.Demonstrative
		out.Instructions = b.Instructions
		out.Identification = b.Identification
		if !b.ExpirationDate.IsZero() {
			out.ExpirationDate = b.ExpirationDate.Format(dateLayout)
		}
	}

	if r := p.RecurrentPayment; r != nil {
		out.RecurrentPayment = &SaleRecurrentPayment{
			AuthorizeNow: r.AuthorizeNowAt(now),
			Interval:     r.Interval.String(),
		}
		if r.StartDate != nil && !out.RecurrentPayment.AuthorizeNow {
			out.RecurrentPayment.StartDate = r.StartDate.Format(dateLayout)
		}
		if r.EndDate != nil {
			out.RecurrentPayment.EndDate = r.EndDate.Format(dateLayout)
		}
	}

	return out
}

// ──────────────────────────────────────────────
// wire → domínio
// ──────────────────────────────────────────────

// transactionFromSale monta uma Transaction inteiramente a partir de uma consulta
func transactionFromSale(s Sale) (domain.Transaction, error) {
	payment, err := paymentFromWire(s.Payment)
	if err != nil {
		return domain.Transaction{}, err
	}
	txn := domain.Transaction{
		MerchantOrderID: s.MerchantOrderID,
		Payment:         payment,
	}
	if s.Customer != nil {
		txn.Customer = customerFromWire(*s.Customer)
	}
	return txn, nil
}

func customerFromWire(c SaleCustomer) domain.Customer {
	out := domain.NewCustomer(c.Name)
	if a := c.Address; a != nil {
		out = out.WithAddress(domain.Address{
			Street:     a.Street,
			Number:     a.Number,
			Complement: a.Complement,
			ZipCode:    a.ZipCode,
			City:       a.City,
			State:      a.State,
			Country:    a.Country,
		})
	}
	return out
}

// paymentFromWire reconstrói o pagamento, incluindo os campos enviados na criação
func paymentFromWire(w SalePayment) (domain.Payment, error) {
	paymentType, err := domain.ParsePaymentType(w.Type)
	if err != nil {
		return domain.Payment{}, err
	}
	p := domain.Payment{
		Type:           paymentType,
		Provider:       domain.Provider(w.Provider),
		Amount:         domain.Cents(w.Amount),
		Currency:       domain.Currency(w.Currency),
		Country:        w.Country,
		Installments:   w.Installments,
		Capture:        w.Capture,
		SoftDescriptor: w.SoftDescriptor,
		ReturnURL:      w.ReturnURL,
	}
	if p.Currency == "" {
		p.Currency = domain.CurrencyBRL
	}
	if p.Installments == 0 {
		p.Installments = 1
	}

	if w.CreditCard != nil {
		card, err := creditCardFromWire(*w.CreditCard)
		if err != nil {
			return domain.Payment{}, err
		}
		p.CreditCard = &card
	}

	if paymentType == domain.PaymentTypeBoleto {
		p.Boleto = &domain.Boleto{
			Number:         w.BoletoNumber,
			Instructions:   w.Instructions,
			Assignor:       w.Assignor,
			Demonstrative:  w.Demonstrative,
			Identification: w.Identification,
			ExpirationDate: parseDate(w.ExpirationDate),
		}
	}

	if w.RecurrentPayment != nil {
		r, err := recurrentFromWire(*w.RecurrentPayment)
		if err != nil {
			return domain.Payment{}, err
		}
		p.RecurrentPayment = &r
	}

	if err := applyPaymentResult(&p, w); err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}

// applyPaymentResult copia os campos atribuídos pelo gateway para p
func applyPaymentResult(p *domain.Payment, w SalePayment) error {
	if w.Status == nil {
		return fmt.Errorf("resposta sem status do pagamento")
	}
	status, err := domain.ParseStatus(*w.Status)
	if err != nil {
		return err
	}
	paymentID, err := parseOptionalUUID(w.PaymentID)
	if err != nil {
		return fmt.Errorf("PaymentId inválido: %w", err)
	}
	if p.PaymentID != uuid.Nil && paymentID != uuid.Nil && p.PaymentID != paymentID {
		return fmt.Errorf("PaymentId %s diferente do esperado %s", paymentID, p.PaymentID)
	}
	if paymentID != uuid.Nil {
		p.PaymentID = paymentID
	}

	p.Status = status
	p.ReturnCode = w.ReturnCode
	p.ReturnMessage = w.ReturnMessage
	p.ProofOfSale = w.ProofOfSale
	p.Tid = w.Tid
	p.AuthorizationCode = w.AuthorizationCode
	p.CapturedAmount = domain.Cents(w.CapturedAmount)
	p.VoidedAmount = domain.Cents(w.VoidedAmount)
	p.BarCodeNumber = w.BarCodeNumber
	p.DigitableLine = w.DigitableLine
	p.URL = w.URL
	p.ReceivedDate = parseDate(w.ReceivedDate)
	p.Links = linksFromWire(w.Links)

	// Captura na criação: o gateway nem sempre devolve CapturedAmount
	if p.Status == domain.StatusPaymentConfirmed && p.CapturedAmount == 0 {
		p.CapturedAmount = p.Amount - p.VoidedAmount
	}

	if p.CreditCard != nil && w.CreditCard != nil {
		if w.CreditCard.CardNumber != "" {
			p.CreditCard.CardNumber = w.CreditCard.CardNumber
		}
		p.CreditCard.SecurityCode = ""
		if token, err := parseOptionalUUID(w.CreditCard.CardToken); err == nil && token != uuid.Nil {
			p.CreditCard.CardToken = token
		}
	}

	if p.RecurrentPayment != nil && w.RecurrentPayment != nil {
		r, err := recurrentFromWire(*w.RecurrentPayment)
		if err != nil {
			return err
		}
		merged := p.RecurrentPayment.Clone()
		merged.RecurrentPaymentID = r.RecurrentPaymentID
		merged.NextRecurrency = r.NextRecurrency
		merged.Status = r.Status
		merged.ReasonCode = r.ReasonCode
		merged.ReasonMessage = r.ReasonMessage
		merged.Link = r.Link
		if merged.StartDate == nil {
			merged.StartDate = r.StartDate
		}
		if merged.EndDate == nil {
			merged.EndDate = r.EndDate
		}
		p.RecurrentPayment = &merged
	}

	return nil
}

func creditCardFromWire(w SaleCreditCard) (domain.CreditCard, error) {
	card := domain.CreditCard{
		CardNumber: w.CardNumber,
		Holder:     w.Holder,
		SaveCard:   w.SaveCard,
	}
	if w.Brand != "" {
		brand, err := domain.ParseBrand(w.Brand)
		if err != nil {
			return domain.CreditCard{}, err
		}
		card.Brand = brand
	}
	if w.ExpirationDate != "" {
		expiry, err := domain.ParseExpiry(w.ExpirationDate)
		if err != nil {
			return domain.CreditCard{}, err
		}
		card.Expiry = expiry
	}
	token, err := parseOptionalUUID(w.CardToken)
	if err != nil {
		return domain.CreditCard{}, fmt.Errorf("CardToken inválido: %w", err)
	}
	card.CardToken = token
	return card, nil
}

func recurrentFromWire(w SaleRecurrentPayment) (domain.RecurrentPayment, error) {
	r := domain.RecurrentPayment{
		StartDate:      parseOptionalDate(w.StartDate),
		EndDate:        parseOptionalDate(w.EndDate),
		NextRecurrency: parseOptionalDate(w.NextRecurrency),
		ReasonCode:     w.ReasonCode,
		ReasonMessage:  w.ReasonMessage,
	}
	if w.Interval != "" {
		interval, err := domain.ParseInterval(w.Interval)
		if err != nil {
			return domain.RecurrentPayment{}, err
		}
		r.Interval = interval
	}
	id, err := parseOptionalUUID(w.RecurrentPaymentID)
	if err != nil {
		return domain.RecurrentPayment{}, fmt.Errorf("RecurrentPaymentId inválido: %w", err)
	}
	r.RecurrentPaymentID = id
	if w.Status != 0 {
		status, err := domain.ParseRecurrentStatus(w.Status)
		if err != nil {
			return domain.RecurrentPayment{}, err
		}
		r.Status = status
	}
	if w.Link != nil {
		r.Link = &domain.Link{Method: w.Link.Method, Rel: w.Link.Rel, Href: w.Link.Href}
	}
	return r, nil
}

func linksFromWire(in []SaleLink) []domain.Link {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Link, len(in))
	for i, l := range in {
		out[i] = domain.Link{Method: l.Method, Rel: l.Rel, Href: l.Href}
	}
	return out
}

func parseOptionalUUID(s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

// parseDate aceita os formatos de data que o gateway devolve. Datas
// ilegíveis viram zero: são informativas e não decidem transições.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{dateTimeLayout, dateLayout, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseOptionalDate(s string) *time.Time {
	t := parseDate(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
