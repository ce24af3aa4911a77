package cielo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magnani/cielo-ecommerce/internal/config"
	"github.com/magnani/cielo-ecommerce/internal/domain"
	"github.com/magnani/cielo-ecommerce/internal/ports"
)

// Merchant são as credenciais do lojista enviadas em toda requisição
type Merchant struct {
	ID  string
	Key string
}

// LogValue implementa slog.LogValuer sem expor a MerchantKey
func (m Merchant) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", m.ID),
		slog.String("key", "[REDACTED]"),
	)
}

// Client implementa ports.PaymentGateway para a API Cielo E-commerce.
// Guarda apenas configuração imutável e pode ser usado concorrentemente.
type Client struct {
	env        Environment
	merchant   Merchant
	transport  ports.GatewayTransport
	serializer ports.Serializer
	classifier Classifier
	logger     *slog.Logger
	now        func() time.Time
}

// Option customiza o Client
type Option func(*Client)

// WithTransport substitui o transporte HTTP padrão
func WithTransport(t ports.GatewayTransport) Option {
	return func(c *Client) { c.transport = t }
}

// WithSerializer substitui o JSONSerializer padrão
func WithSerializer(s ports.Serializer) Option {
	return func(c *Client) { c.serializer = s }
}

// WithLogger define o logger (padrão slog.Default())
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock define a fonte de tempo usada para decidir AuthorizeNow
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient cria um novo cliente Cielo
func NewClient(env Environment, merchant Merchant, opts ...Option) (*Client, error) {
	if strings.TrimSpace(merchant.ID) == "" {
		return nil, domain.NewValidationError("merchantId", "MerchantId é obrigatório")
	}
	if strings.TrimSpace(merchant.Key) == "" {
		return nil, domain.NewValidationError("merchantKey", "MerchantKey é obrigatório")
	}
	if env.APIURL == "" || env.QueryURL == "" {
		return nil, domain.NewValidationError("environment", "URLs de transação e consulta são obrigatórias")
	}

	c := &Client{
		env:        env,
		merchant:   merchant,
		serializer: JSONSerializer{},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		t, err := NewHTTPTransport(HTTPTransportConfig{})
		if err != nil {
			return nil, err
		}
		c.transport = t
	}
	c.classifier = NewClassifier(c.serializer)

	return c, nil
}

// EnvironmentFromConfig escolhe o ambiente a partir da configuração
func EnvironmentFromConfig(cfg *config.CieloConfig) Environment {
	if cfg.APIURL != "" && cfg.QueryURL != "" {
		return NewEnvironment("custom", cfg.APIURL, cfg.QueryURL)
	}
	if cfg.Sandbox {
		return Sandbox
	}
	return Production
}

// NewClientFromConfig cria o cliente com transporte HTTP configurado a partir de cfg
func NewClientFromConfig(cfg *config.CieloConfig, logger *slog.Logger) (*Client, error) {
	transport, err := NewHTTPTransport(HTTPTransportConfig{
		Timeout:             cfg.Timeout,
		CertificatePath:     cfg.CertificatePath,
		CertificatePassword: cfg.CertificatePassword,
	})
	if err != nil {
		return nil, err
	}

	opts := []Option{WithTransport(transport)}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	return NewClient(
		EnvironmentFromConfig(cfg),
		Merchant{ID: cfg.MerchantID, Key: cfg.MerchantKey},
		opts...,
	)
}

// Environment retorna o ambiente configurado
func (c *Client) Environment() Environment {
	return c.env
}

// call descreve uma troca com o gateway
type call struct {
	operation string
	method    string
	url       string
	requestID uuid.UUID
	body      any
}

// send serializa, envia e classifica a troca. Retorna o corpo apenas para
// respostas 2xx; caso contrário o erro é *ProtocolError ou *TransportFault.
func (c *Client) send(ctx context.Context, cl call) ([]byte, error) {
	var body []byte
	if cl.body != nil {
		var err error
		body, err = c.serializer.Serialize(cl.body)
		if err != nil {
			return nil, err
		}
	}

	header := http.Header{}
	header.Set(HeaderMerchantID, c.merchant.ID)
	header.Set(HeaderMerchantKey, c.merchant.Key)
	header.Set(HeaderRequestID, cl.requestID.String())
	header.Set("Accept", "application/json")
	if body != nil {
		header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.transport.Send(ctx, ports.TransportRequest{
		Method: cl.method,
		URL:    cl.url,
		Header: header,
		Body:   body,
	})
	outcome := c.classifier.Classify(resp, err)

	attrs := []any{
		slog.String("operation", cl.operation),
		slog.String("request_id", cl.requestID.String()),
		slog.String("outcome", outcome.Kind.String()),
		slog.Int("status_code", outcome.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	}
	switch outcome.Kind {
	case OutcomeResult:
		c.logger.DebugContext(ctx, "cielo: resposta recebida", attrs...)
		return outcome.Body, nil
	case OutcomeRejected:
		c.logger.WarnContext(ctx, "cielo: requisição rejeitada", append(attrs, slog.Any("codes", ErrorCodes(outcome.Err)))...)
	default:
		c.logger.ErrorContext(ctx, "cielo: falha de transporte", append(attrs, slog.String("error", outcome.Err.Error()))...)
	}
	return nil, outcome.Err
}

// decode converte o corpo; falhas viram TransportFault de resposta malformada
func (c *Client) decode(body []byte, target any) error {
	if err := c.serializer.Deserialize(body, target); err != nil {
		return &TransportFault{Kind: FaultMalformedResponse, StatusCode: http.StatusOK, Err: err}
	}
	return nil
}

func malformed(err error) error {
	return &TransportFault{Kind: FaultMalformedResponse, StatusCode: http.StatusOK, Err: err}
}

// CreateTransaction autoriza uma nova transação. Negações voltam como
// Payment com Status Denied e ReturnCode preenchido, sem erro.
func (c *Client) CreateTransaction(ctx context.Context, requestID uuid.UUID, txn domain.Transaction) (*domain.Transaction, error) {
	if err := requireRequestID(requestID); err != nil {
		return nil, err
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	body, err := c.send(ctx, call{
		operation: "create",
		method:    http.MethodPost,
		url:       c.env.apiURL("1/sales/"),
		requestID: requestID,
		body:      saleFromTransaction(txn, c.now()),
	})
	if err != nil {
		return nil, WrapAPIError("create", err)
	}

	var sale Sale
	if err := c.decode(body, &sale); err != nil {
		return nil, WrapAPIError("create", err)
	}

	result := txn.Clone()
	if err := applyPaymentResult(&result.Payment, sale.Payment); err != nil {
		return nil, WrapAPIError("create", malformed(err))
	}
	if result.Payment.PaymentID == uuid.Nil {
		return nil, WrapAPIError("create", malformed(errors.New("resposta sem PaymentId")))
	}
	if err := domain.CheckCreated(result.Payment.Type, result.Payment.Status); err != nil {
		return nil, WrapAPIError("create", malformed(err))
	}

	c.logger.InfoContext(ctx, "cielo: transação criada",
		slog.String("merchant_order_id", result.MerchantOrderID),
		slog.String("payment_id", result.Payment.PaymentID.String()),
		slog.String("status", result.Payment.Status.String()),
		slog.String("return_code", result.Payment.ReturnCode),
	)
	return &result, nil
}

// CaptureTransaction captura uma autorização. amount nil captura o valor inteiro.
func (c *Client) CaptureTransaction(ctx context.Context, requestID, paymentID uuid.UUID, amount *domain.Amount) (*domain.Payment, error) {
	if err := requireRequestID(requestID); err != nil {
		return nil, err
	}
	if err := requireID("paymentId", paymentID); err != nil {
		return nil, err
	}

	current, err := c.ConsultTransaction(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	planned, value, err := domain.Capture(current.Payment, amount)
	if err != nil {
		return nil, err
	}

	next, err := c.update(ctx, domain.OpCapture, requestID, current.Payment, planned, amountPath(paymentID, "capture", amount, value))
	if err != nil {
		return nil, WrapAPIError("capture", err)
	}
	return next, nil
}

// CancelTransaction cancela um pagamento. amount nil cancela todo o saldo;
// cancelamento parcial só é aceito depois da captura.
func (c *Client) CancelTransaction(ctx context.Context, requestID, paymentID uuid.UUID, amount *domain.Amount) (*domain.Payment, error) {
	if err := requireRequestID(requestID); err != nil {
		return nil, err
	}
	if err := requireID("paymentId", paymentID); err != nil {
		return nil, err
	}

	current, err := c.ConsultTransaction(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	planned, value, err := domain.Cancel(current.Payment, amount)
	if err != nil {
		return nil, err
	}

	next, err := c.update(ctx, domain.OpCancel, requestID, current.Payment, planned, amountPath(paymentID, "void", amount, value))
	if err != nil {
		return nil, WrapAPIError("cancel", err)
	}
	return next, nil
}

func amountPath(paymentID uuid.UUID, action string, requested *domain.Amount, value domain.Amount) string {
	path := fmt.Sprintf("1/sales/%s/%s", paymentID, action)
	if requested != nil {
		path += "?amount=" + strconv.FormatInt(value.Cents(), 10)
	}
	return path
}

// update envia captura/cancelamento e devolve o estado confirmado pelo gateway
func (c *Client) update(ctx context.Context, op domain.Operation, requestID uuid.UUID, prev, planned domain.Payment, path string) (*domain.Payment, error) {
	body, err := c.send(ctx, call{
		operation: op.String(),
		method:    http.MethodPut,
		url:       c.env.apiURL(path),
		requestID: requestID,
	})
	if err != nil {
		return nil, err
	}

	var resp UpdateResponse
	if err := c.decode(body, &resp); err != nil {
		return nil, err
	}
	if err := checkReported(op, prev, planned, resp); err != nil {
		return nil, malformed(err)
	}

	// Valores capturados e cancelados vêm da consulta: uma repetição com o
	// mesmo RequestId recebe a resposta gravada da primeira tentativa.
	confirmed, err := c.ConsultTransaction(ctx, prev.PaymentID)
	if err != nil {
		return nil, err
	}
	next := foldUpdate(confirmed.Payment, resp)

	c.logger.InfoContext(ctx, "cielo: pagamento atualizado",
		slog.String("operation", op.String()),
		slog.String("payment_id", next.PaymentID.String()),
		slog.String("from", prev.Status.String()),
		slog.String("status", next.Status.String()),
		slog.String("captured", next.CapturedAmount.String()),
		slog.String("voided", next.VoidedAmount.String()),
	)
	return &next, nil
}

// checkReported rejeita um status reportado que não é alcançável a partir
// do estado consultado.
func checkReported(op domain.Operation, prev, planned domain.Payment, resp UpdateResponse) error {
	reported, err := domain.ParseStatus(resp.Status)
	if err != nil {
		return err
	}
	if reported == planned.Status || reported == prev.Status || domain.CanTransition(prev.Type, prev.Status, op, reported) {
		return nil
	}
	return fmt.Errorf("status %s inesperado após %s a partir de %s", reported, op, prev.Status)
}

// foldUpdate aplica os códigos de retorno da atualização ao estado confirmado
func foldUpdate(confirmed domain.Payment, resp UpdateResponse) domain.Payment {
	next := confirmed
	switch {
	case resp.ReturnCode != "":
		next.ReturnCode = resp.ReturnCode
		next.ReturnMessage = resp.ReturnMessage
	case resp.ProviderReturnCode != "":
		next.ReturnCode = resp.ProviderReturnCode
		next.ReturnMessage = resp.ProviderReturnMessage
	}
	if links := linksFromWire(resp.Links); links != nil {
		next.Links = links
	}
	return next
}

// ConsultTransaction consulta uma transação pelo PaymentId. Não altera estado.
func (c *Client) ConsultTransaction(ctx context.Context, paymentID uuid.UUID) (*domain.Transaction, error) {
	if err := requireID("paymentId", paymentID); err != nil {
		return nil, err
	}

	body, err := c.send(ctx, call{
		operation: "consult",
		method:    http.MethodGet,
		url:       c.env.queryURL("1/sales/" + paymentID.String()),
		requestID: NewRequestID(),
	})
	if err != nil {
		return nil, WrapAPIError("consult", err)
	}

	var sale Sale
	if err := c.decode(body, &sale); err != nil {
		return nil, WrapAPIError("consult", err)
	}
	txn, err := transactionFromSale(sale)
	if err != nil {
		return nil, WrapAPIError("consult", malformed(err))
	}
	if txn.Payment.PaymentID != paymentID {
		return nil, WrapAPIError("consult", malformed(fmt.Errorf("resposta para PaymentId %s, esperado %s", txn.Payment.PaymentID, paymentID)))
	}
	return &txn, nil
}

// ConsultByMerchantOrderID lista os PaymentIds associados a um pedido
func (c *Client) ConsultByMerchantOrderID(ctx context.Context, merchantOrderID string) ([]uuid.UUID, error) {
	if strings.TrimSpace(merchantOrderID) == "" {
		return nil, domain.NewValidationError("merchantOrderId", "número do pedido é obrigatório")
	}

	body, err := c.send(ctx, call{
		operation: "consult_order",
		method:    http.MethodGet,
		url:       c.env.queryURL("1/sales?merchantOrderId=" + url.QueryEscape(merchantOrderID)),
		requestID: NewRequestID(),
	})
	if err != nil {
		return nil, WrapAPIError("consult order", err)
	}

	var resp OrderPayments
	if err := c.decode(body, &resp); err != nil {
		return nil, WrapAPIError("consult order", err)
	}
	ids := make([]uuid.UUID, 0, len(resp.Payments))
	for _, p := range resp.Payments {
		id, err := uuid.Parse(p.PaymentID)
		if err != nil {
			return nil, WrapAPIError("consult order", malformed(fmt.Errorf("PaymentId inválido %q: %w", p.PaymentID, err)))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var _ ports.PaymentGateway = (*Client)(nil)
