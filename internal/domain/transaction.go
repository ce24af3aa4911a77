package domain

import "strings"

// Transaction é a unidade de criação: pedido do lojista + comprador + pagamento.
// Captura, cancelamento e recorrência operam sobre o PaymentId gerado, não
// sobre a Transaction.
type Transaction struct {
	MerchantOrderID string
	Customer        Customer
	Payment         Payment
}

// NewTransaction monta e valida uma transação
func NewTransaction(merchantOrderID string, customer Customer, payment Payment) (Transaction, error) {
	t := Transaction{
		MerchantOrderID: merchantOrderID,
		Customer:        customer,
		Payment:         payment,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Validate verifica as combinações obrigatórias antes de qualquer chamada de rede
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.MerchantOrderID) == "" {
		return NewValidationError("merchantOrderId", "número do pedido é obrigatório")
	}
	if strings.TrimSpace(t.Customer.Name) == "" {
		return NewValidationError("customer.name", "nome do comprador é obrigatório")
	}
	if err := t.Payment.Validate(); err != nil {
		return err
	}
	if t.Payment.Type == PaymentTypeBoleto {
		if err := t.Customer.Address.validateComplete("customer.address"); err != nil {
			return err
		}
	}
	return nil
}

// Clone retorna uma cópia profunda da transação
func (t Transaction) Clone() Transaction {
	cp := t
	cp.Customer.Address = t.Customer.Address.clone()
	cp.Payment = t.Payment.Clone()
	return cp
}
