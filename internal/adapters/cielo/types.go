package cielo

// Formatos de data usados no wire
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Sale é o payload de criação e consulta de transações
type Sale struct {
	MerchantOrderID string        `json:"MerchantOrderId"`
	Customer        *SaleCustomer `json:"Customer,omitempty"`
	Payment         SalePayment   `json:"Payment"`
}

// SaleCustomer representa o comprador no wire
type SaleCustomer struct {
	Name    string       `json:"Name"`
	Address *SaleAddress `json:"Address,omitempty"`
}

// SaleAddress representa o endereço do comprador
type SaleAddress struct {
	Street     string `json:"Street,omitempty"`
	Number     string `json:"Number,omitempty"`
	Complement string `json:"Complement,omitempty"`
	ZipCode    string `json:"ZipCode,omitempty"`
	City       string `json:"City,omitempty"`
	State      string `json:"State,omitempty"`
	Country    string `json:"Country,omitempty"`
}

// SaleCreditCard representa o cartão. Na resposta o número vem mascarado.
type SaleCreditCard struct {
	CardNumber     string `json:"CardNumber,omitempty"`
	Holder         string `json:"Holder,omitempty"`
	ExpirationDate string `json:"ExpirationDate,omitempty"` // MM/YYYY
	SecurityCode   string `json:"SecurityCode,omitempty"`
	SaveCard       bool   `json:"SaveCard"`
	Brand          string `json:"Brand"`
	CardToken      string `json:"CardToken,omitempty"`
}

// SaleRecurrentPayment representa o agendamento recorrente
type SaleRecurrentPayment struct {
	RecurrentPaymentID string    `json:"RecurrentPaymentId,omitempty"`
	AuthorizeNow       bool      `json:"AuthorizeNow"`
	StartDate          string    `json:"StartDate,omitempty"` // YYYY-MM-DD
	EndDate            string    `json:"EndDate,omitempty"`
	Interval           string    `json:"Interval,omitempty"`
	NextRecurrency     string    `json:"NextRecurrency,omitempty"`
	Status             int       `json:"Status,omitempty"`
	ReasonCode         int       `json:"ReasonCode,omitempty"`
	ReasonMessage      string    `json:"ReasonMessage,omitempty"`
	Amount             int64     `json:"Amount,omitempty"`
	Link               *SaleLink `json:"Link,omitempty"`
}

// SaleLink é um link HATEOAS
type SaleLink struct {
	Method string `json:"Method,omitempty"`
	Rel    string `json:"Rel,omitempty"`
	Href   string `json:"Href"`
}

// SalePayment representa o pagamento. Os campos após Status só aparecem nas respostas.
type SalePayment struct {
	Type             string                `json:"Type"`
	Amount           int64                 `json:"Amount"` // Centavos
	Currency         string                `json:"Currency,omitempty"`
	Country          string                `json:"Country,omitempty"`
	Provider         string                `json:"Provider,omitempty"`
	Installments     int                   `json:"Installments,omitempty"`
	Capture          bool                  `json:"Capture"`
	SoftDescriptor   string                `json:"SoftDescriptor,omitempty"`
	CreditCard       *SaleCreditCard       `json:"CreditCard,omitempty"`
	BoletoNumber     string                `json:"BoletoNumber,omitempty"`
	Assignor         string                `json:"Assignor,omitempty"`
	Demonstrative    string                `json:"Demonstrative,omitempty"`
	Instructions     string                `json:"Instructions,omitempty"`
	Identification   string                `json:"Identification,omitempty"`
	ExpirationDate   string                `json:"ExpirationDate,omitempty"` // YYYY-MM-DD (boleto)
	ReturnURL        string                `json:"ReturnUrl,omitempty"`
	RecurrentPayment *SaleRecurrentPayment `json:"RecurrentPayment,omitempty"`

	PaymentID         string     `json:"PaymentId,omitempty"`
	Status            *int       `json:"Status,omitempty"`
	ReturnCode        string     `json:"ReturnCode,omitempty"`
	ReturnMessage     string     `json:"ReturnMessage,omitempty"`
	ProofOfSale       string     `json:"ProofOfSale,omitempty"`
	Tid               string     `json:"Tid,omitempty"`
	AuthorizationCode string     `json:"AuthorizationCode,omitempty"`
	CapturedAmount    int64      `json:"CapturedAmount,omitempty"`
	VoidedAmount      int64      `json:"VoidedAmount,omitempty"`
	ReceivedDate      string     `json:"ReceivedDate,omitempty"`
	URL               string     `json:"Url,omitempty"`
	BarCodeNumber     string     `json:"BarCodeNumber,omitempty"`
	DigitableLine     string     `json:"DigitableLine,omitempty"`
	Links             []SaleLink `json:"Links,omitempty"`
}

// UpdateResponse é a resposta de captura e cancelamento
type UpdateResponse struct {
	Status                int        `json:"Status"`
	ReasonCode            int        `json:"ReasonCode"`
	ReasonMessage         string     `json:"ReasonMessage,omitempty"`
	ProviderReturnCode    string     `json:"ProviderReturnCode,omitempty"`
	ProviderReturnMessage string     `json:"ProviderReturnMessage,omitempty"`
	ReturnCode            string     `json:"ReturnCode,omitempty"`
	ReturnMessage         string     `json:"ReturnMessage,omitempty"`
	Links                 []SaleLink `json:"Links,omitempty"`
}

// OrderPayments é a resposta da consulta por MerchantOrderId
type OrderPayments struct {
	Payments []OrderPayment `json:"Payments"`
}

// OrderPayment é um pagamento listado na consulta por pedido
type OrderPayment struct {
	PaymentID    string `json:"PaymentId"`
	ReceivedDate string `json:"ReceivedDate,omitempty"`
}

// RecurrentConsult é a resposta da consulta de recorrência
type RecurrentConsult struct {
	Customer         *SaleCustomer        `json:"Customer,omitempty"`
	RecurrentPayment SaleRecurrentPayment `json:"RecurrentPayment"`
}

// NotificationPayload é o corpo do post de notificação enviado pelo gateway
type NotificationPayload struct {
	PaymentID          string `json:"PaymentId,omitempty"`
	RecurrentPaymentID string `json:"RecurrentPaymentId,omitempty"`
	ChangeType         int    `json:"ChangeType"`
}
