package domain

// Customer representa o comprador. Não tem identidade fora da transação.
type Customer struct {
	Name    string
	Address *Address
}

// NewCustomer cria um comprador sem endereço
func NewCustomer(name string) Customer {
	return Customer{Name: name}
}

// WithAddress retorna uma cópia do comprador com o endereço informado
func (c Customer) WithAddress(a Address) Customer {
	c.Address = &a
	return c
}

// Address representa um endereço físico
type Address struct {
	Street     string
	Number     string
	Complement string
	ZipCode    string
	City       string
	State      string
	Country    string
}

// validateComplete exige todos os campos necessários para emissão de boleto
func (a *Address) validateComplete(prefix string) error {
	if a == nil {
		return NewValidationError(prefix, "endereço é obrigatório")
	}
	required := []struct {
		field string
		value string
	}{
		{"street", a.Street},
		{"number", a.Number},
		{"zipCode", a.ZipCode},
		{"city", a.City},
		{"state", a.State},
		{"country", a.Country},
	}
	for _, r := range required {
		if r.value == "" {
			return NewValidationError(prefix+"."+r.field, "campo obrigatório")
		}
	}
	return nil
}

func (a *Address) clone() *Address {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
