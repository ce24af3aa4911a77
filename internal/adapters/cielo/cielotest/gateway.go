// Package cielotest fornece um gateway Cielo em memória (httptest) que
// reproduz o contrato observável do sandbox: cartões de teste por final,
// idempotência por RequestId, captura/cancelamento parciais e recorrência.
package cielotest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/magnani/cielo-ecommerce/internal/adapters/cielo"
	"github.com/magnani/cielo-ecommerce/internal/domain"
)

// Credenciais aceitas pelo gateway de testes
const (
	MerchantID  = "00000000-0000-0000-0000-000000000001"
	MerchantKey = "CIELOTESTKEY0000000000000000000000000000"
)

// Códigos de erro usados pelo gateway de testes além dos exportados por cielo
const (
	codeRequiredField     = 100
	codeInvalidAmount     = 116
	codeCardTokenNotFound = 171
	codeRecurrentFinished = 318
)

// Request registra uma requisição recebida
type Request struct {
	Method    string
	Path      string
	RequestID string
	Replayed  bool
}

type storedPayment struct {
	sale cielo.Sale
}

type idempotencyEntry struct {
	status  int
	body    []byte
	expires time.Time
}

// Gateway é o servidor de testes. Seguro para uso concorrente.
type Gateway struct {
	server *httptest.Server

	mu          sync.Mutex
	payments    map[uuid.UUID]*storedPayment
	orders      map[string][]uuid.UUID
	recurrents  map[uuid.UUID]*cielo.RecurrentConsult
	cards       map[uuid.UUID]cielo.SaleCreditCard
	idempotency map[string]idempotencyEntry
	requests    []Request
	executions  int
	sequence    int

	ttl time.Duration
	now func() time.Time
}

// Option customiza o Gateway
type Option func(*Gateway)

// WithIdempotencyTTL define por quanto tempo um RequestId é lembrado
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(g *Gateway) { g.ttl = ttl }
}

// WithClock define a fonte de tempo (validade de cartões, agendamentos, TTL)
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New inicia o gateway e registra o encerramento em t.Cleanup
func New(t testing.TB, opts ...Option) *Gateway {
	t.Helper()

	g := &Gateway{
		payments:    make(map[uuid.UUID]*storedPayment),
		orders:      make(map[string][]uuid.UUID),
		recurrents:  make(map[uuid.UUID]*cielo.RecurrentConsult),
		cards:       make(map[uuid.UUID]cielo.SaleCreditCard),
		idempotency: make(map[string]idempotencyEntry),
		ttl:         10 * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.server = httptest.NewServer(g.routes())
	t.Cleanup(g.server.Close)
	return g
}

func (g *Gateway) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(g.authenticate)
	r.Use(g.serialize)

	r.Post("/1/sales", g.createSale)
	r.Post("/1/sales/", g.createSale)
	r.Get("/1/sales", g.consultByOrder)
	r.Get("/1/sales/{paymentId}", g.consultSale)
	r.Put("/1/sales/{paymentId}/capture", g.captureSale)
	r.Put("/1/sales/{paymentId}/void", g.voidSale)
	r.Get("/1/RecurrentPayment/{recurrentPaymentId}", g.consultRecurrent)
	r.Put("/1/RecurrentPayment/{recurrentPaymentId}/Reactivate", g.reactivate)
	r.Put("/1/RecurrentPayment/{recurrentPaymentId}/Deactivate", g.deactivate)
	return r
}

// URL retorna a URL base do servidor
func (g *Gateway) URL() string {
	return g.server.URL
}

// HTTPClient retorna um *http.Client apontando para o servidor
func (g *Gateway) HTTPClient() *http.Client {
	return g.server.Client()
}

// Environment retorna um ambiente apontando transações e consultas para o servidor
func (g *Gateway) Environment() cielo.Environment {
	return cielo.NewEnvironment("cielotest", g.server.URL+"/", g.server.URL+"/")
}

// Merchant retorna as credenciais aceitas
func (g *Gateway) Merchant() cielo.Merchant {
	return cielo.Merchant{ID: MerchantID, Key: MerchantKey}
}

// NewClient cria um cliente configurado para o servidor
func (g *Gateway) NewClient(opts ...cielo.Option) (*cielo.Client, error) {
	base := []cielo.Option{cielo.WithTransport(cielo.NewHTTPTransportWithClient(g.HTTPClient()))}
	return cielo.NewClient(g.Environment(), g.Merchant(), append(base, opts...)...)
}

// Requests retorna uma cópia das requisições recebidas
func (g *Gateway) Requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Request(nil), g.requests...)
}

// Executions retorna quantas operações de escrita foram efetivamente aplicadas
// (reenvios com o mesmo RequestId não contam)
func (g *Gateway) Executions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.executions
}

// SetRecurrentStatus força o status de um agendamento (ex: simular cartão vencido)
func (g *Gateway) SetRecurrentStatus(id uuid.UUID, status domain.RecurrentStatus) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.recurrents[id]
	if !ok {
		return false
	}
	rec.RecurrentPayment.Status = int(status)
	return true
}

// ──────────────────────────────────────────────
// Middlewares
// ──────────────────────────────────────────────

func (g *Gateway) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(cielo.HeaderMerchantID) != MerchantID || r.Header.Get(cielo.HeaderMerchantKey) != MerchantKey {
			writeJSON(w, http.StatusUnauthorized, []cielo.CieloError{{Code: cielo.ErrCodeMerchantIDInvalid, Message: "Merchant credentials are invalid"}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// serialize executa uma requisição por vez e repete a resposta gravada para
// escritas com um RequestId já visto dentro do TTL
func (g *Gateway) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		requestID := r.Header.Get(cielo.HeaderRequestID)
		req := Request{Method: r.Method, Path: r.URL.RequestURI(), RequestID: requestID}

		if r.Method == http.MethodGet || requestID == "" {
			g.requests = append(g.requests, req)
			next.ServeHTTP(w, r)
			return
		}

		now := g.now()
		g.expireIdempotency(now)

		key := requestID + " " + r.Method + " " + r.URL.RequestURI()
		if entry, ok := g.idempotency[key]; ok {
			req.Replayed = true
			g.requests = append(g.requests, req)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(entry.status)
			w.Write(entry.body)
			return
		}
		g.requests = append(g.requests, req)

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status < 500 {
			g.idempotency[key] = idempotencyEntry{status: rec.status, body: rec.body.Bytes(), expires: now.Add(g.ttl)}
		}
	})
}

func (g *Gateway) expireIdempotency(now time.Time) {
	for key, entry := range g.idempotency {
		if now.After(entry.expires) {
			delete(g.idempotency, key)
		}
	}
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// ──────────────────────────────────────────────
// Vendas
// ──────────────────────────────────────────────

func (g *Gateway) createSale(w http.ResponseWriter, r *http.Request) {
	var sale cielo.Sale
	if err := json.NewDecoder(r.Body).Decode(&sale); err != nil {
		writeErrors(w, http.StatusBadRequest, codeRequiredField, "Invalid request body")
		return
	}
	if sale.MerchantOrderID == "" {
		writeErrors(w, http.StatusBadRequest, codeRequiredField, "MerchantOrderId is required")
		return
	}
	if sale.Payment.Amount <= 0 {
		writeErrors(w, http.StatusBadRequest, codeInvalidAmount, "Amount must be greater than zero")
		return
	}

	now := g.now()
	p := &sale.Payment
	p.PaymentID = uuid.NewString()
	p.ReceivedDate = now.Format("2006-01-02 15:04:05")
	p.Links = []cielo.SaleLink{g.link(http.MethodGet, "self", "/1/sales/"+p.PaymentID)}

	var status domain.Status
	switch p.Type {
	case domain.PaymentTypeCreditCard.String():
		var ok bool
		status, ok = g.authorizeCard(w, p, now)
		if !ok {
			return
		}
	case domain.PaymentTypeBoleto.String():
		status = domain.StatusAuthorized
		g.sequence++
		p.BarCodeNumber = fmt.Sprintf("00091%039d", g.sequence)
		p.DigitableLine = fmt.Sprintf("00090.00000 00000.000000 00000.000000 %d %014d", g.sequence%10, p.Amount)
		p.URL = g.server.URL + "/boleto/" + p.PaymentID
	case domain.PaymentTypeEletronicTransfer.String():
		status = domain.StatusNotFinished
		p.URL = g.server.URL + "/transfer/" + p.PaymentID
	default:
		writeErrors(w, http.StatusBadRequest, codeRequiredField, "Payment Type is invalid")
		return
	}

	setStatus(p, status)
	id, _ := uuid.Parse(p.PaymentID)
	g.payments[id] = &storedPayment{sale: sale}
	g.orders[sale.MerchantOrderID] = append(g.orders[sale.MerchantOrderID], id)
	g.executions++

	writeJSON(w, http.StatusCreated, sale)
}

// authorizeCard aplica as regras do sandbox pelo último dígito do cartão
func (g *Gateway) authorizeCard(w http.ResponseWriter, p *cielo.SalePayment, now time.Time) (domain.Status, bool) {
	card := p.CreditCard
	if card == nil {
		writeErrors(w, http.StatusBadRequest, codeRequiredField, "CreditCard is required")
		return 0, false
	}

	if card.CardToken != "" {
		token, err := uuid.Parse(card.CardToken)
		saved, ok := g.cards[token]
		if err != nil || !ok {
			writeErrors(w, http.StatusBadRequest, codeCardTokenNotFound, "Card Token not found")
			return 0, false
		}
		card.CardNumber = saved.CardNumber
		card.Holder = saved.Holder
		card.ExpirationDate = saved.ExpirationDate
	}

	expiry, err := domain.ParseExpiry(card.ExpirationDate)
	if err != nil || expiry.ExpiredAt(now) {
		writeErrors(w, http.StatusBadRequest, cielo.ErrCodeCardExpirationInvalid, "Credit Card Expiration Date is invalid")
		return 0, false
	}

	if card.SaveCard && card.CardToken == "" {
		token := uuid.New()
		g.cards[token] = *card
		card.CardToken = token.String()
	}

	number := card.CardNumber
	card.CardNumber = mask(number)
	card.SecurityCode = ""

	g.sequence++
	p.Tid = fmt.Sprintf("%020d", g.sequence)
	p.ProofOfSale = fmt.Sprintf("%06d", g.sequence)

	if rp := p.RecurrentPayment; rp != nil {
		g.schedule(p, now)
		if !rp.AuthorizeNow {
			return domain.StatusScheduled, true
		}
	}

	status, code, message := sandboxResult(number)
	p.ReturnCode = code
	p.ReturnMessage = message
	if status != domain.StatusAuthorized {
		return status, true
	}

	p.AuthorizationCode = fmt.Sprintf("%06d", g.sequence)
	p.Links = append(p.Links,
		g.link(http.MethodPut, "capture", "/1/sales/"+p.PaymentID+"/capture"),
		g.link(http.MethodPut, "void", "/1/sales/"+p.PaymentID+"/void"),
	)
	if p.Capture {
		p.CapturedAmount = p.Amount
		return domain.StatusPaymentConfirmed, true
	}
	return domain.StatusAuthorized, true
}

func sandboxResult(number string) (domain.Status, string, string) {
	last := byte('1')
	if number != "" {
		last = number[len(number)-1]
	}
	switch last {
	case '2':
		return domain.StatusDenied, cielo.ReturnCodeDenied, "Not Authorized"
	case '3':
		return domain.StatusDenied, cielo.ReturnCodeExpiredCard, "Card Expired"
	case '5':
		return domain.StatusDenied, cielo.ReturnCodeBlockedCard, "Blocked Card"
	case '6':
		return domain.StatusDenied, cielo.ReturnCodeTimeout, "Time Out"
	case '7':
		return domain.StatusDenied, cielo.ReturnCodeCanceledCard, "Card Canceled"
	case '8':
		return domain.StatusDenied, cielo.ReturnCodeCardProblems, "Problems with Creditcard"
	default:
		return domain.StatusAuthorized, cielo.ReturnCodeAuthorized, "Operation Successful"
	}
}

func (g *Gateway) schedule(p *cielo.SalePayment, now time.Time) {
	rp := p.RecurrentPayment
	id := uuid.New()
	rp.RecurrentPaymentID = id.String()
	rp.Status = int(domain.RecurrentStatusActive)

	next := now.AddDate(0, 1, 0)
	if !rp.AuthorizeNow && rp.StartDate != "" {
		if start, err := time.Parse("2006-01-02", rp.StartDate); err == nil {
			next = start
		}
	}
	rp.NextRecurrency = next.Format("2006-01-02")
	rp.Link = &cielo.SaleLink{Method: http.MethodGet, Rel: "recurrentPayment", Href: g.server.URL + "/1/RecurrentPayment/" + id.String()}

	consult := &cielo.RecurrentConsult{RecurrentPayment: *rp}
	consult.RecurrentPayment.Amount = p.Amount
	g.recurrents[id] = consult
}

func (g *Gateway) consultSale(w http.ResponseWriter, r *http.Request) {
	stored, ok := g.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stored.sale)
}

func (g *Gateway) consultByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("merchantOrderId")
	if orderID == "" {
		writeErrors(w, http.StatusBadRequest, codeRequiredField, "MerchantOrderId is required")
		return
	}
	ids := g.orders[orderID]
	if len(ids) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var resp cielo.OrderPayments
	for _, id := range ids {
		resp.Payments = append(resp.Payments, cielo.OrderPayment{
			PaymentID:    id.String(),
			ReceivedDate: g.payments[id].sale.Payment.ReceivedDate,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (g *Gateway) captureSale(w http.ResponseWriter, r *http.Request) {
	g.updateSale(w, r, domain.OpCapture)
}

func (g *Gateway) voidSale(w http.ResponseWriter, r *http.Request) {
	g.updateSale(w, r, domain.OpCancel)
}

func (g *Gateway) updateSale(w http.ResponseWriter, r *http.Request, op domain.Operation) {
	stored, ok := g.lookup(w, r)
	if !ok {
		return
	}

	var amount *domain.Amount
	if raw := r.URL.Query().Get("amount"); raw != "" {
		cents, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeErrors(w, http.StatusBadRequest, codeInvalidAmount, "Amount is invalid")
			return
		}
		a := domain.Cents(cents)
		amount = &a
	}

	p := &stored.sale.Payment
	current := paymentState(*p)

	var next domain.Payment
	var err error
	conflictCode := cielo.ErrCodeCaptureNotAvailable
	conflictMessage := "Transaction not available to capture"
	if op == domain.OpCapture {
		next, _, err = domain.Capture(current, amount)
	} else {
		conflictCode = cielo.ErrCodeVoidNotAvailable
		conflictMessage = "Transaction not available to void"
		next, _, err = domain.Cancel(current, amount)
	}
	switch {
	case domain.IsIllegalTransition(err):
		writeErrors(w, http.StatusBadRequest, conflictCode, conflictMessage)
		return
	case err != nil:
		writeErrors(w, http.StatusBadRequest, codeInvalidAmount, err.Error())
		return
	}

	setStatus(p, next.Status)
	p.CapturedAmount = next.CapturedAmount.Cents()
	p.VoidedAmount = next.VoidedAmount.Cents()
	p.ReturnCode = "6"
	p.ReturnMessage = "Operation Successful"
	g.executions++

	writeJSON(w, http.StatusOK, cielo.UpdateResponse{
		Status:                int(next.Status),
		ReasonCode:            0,
		ReasonMessage:         "Successful",
		ProviderReturnCode:    "6",
		ProviderReturnMessage: "Operation Successful",
		ReturnCode:            "6",
		ReturnMessage:         "Operation Successful",
		Links:                 []cielo.SaleLink{g.link(http.MethodGet, "self", "/1/sales/"+p.PaymentID)},
	})
}

func (g *Gateway) lookup(w http.ResponseWriter, r *http.Request) (*storedPayment, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "paymentId"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return nil, false
	}
	stored, ok := g.payments[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return nil, false
	}
	return stored, true
}

// ──────────────────────────────────────────────
// Recorrência
// ──────────────────────────────────────────────

func (g *Gateway) consultRecurrent(w http.ResponseWriter, r *http.Request) {
	rec, ok := g.lookupRecurrent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (g *Gateway) reactivate(w http.ResponseWriter, r *http.Request) {
	rec, ok := g.lookupRecurrent(w, r)
	if !ok {
		return
	}
	if rec.RecurrentPayment.Status == int(domain.RecurrentStatusFinished) {
		writeErrors(w, http.StatusBadRequest, codeRecurrentFinished, "Recurrent Payment is finished")
		return
	}
	rec.RecurrentPayment.Status = int(domain.RecurrentStatusActive)
	g.executions++
	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) deactivate(w http.ResponseWriter, r *http.Request) {
	rec, ok := g.lookupRecurrent(w, r)
	if !ok {
		return
	}
	if rec.RecurrentPayment.Status == int(domain.RecurrentStatusActive) {
		rec.RecurrentPayment.Status = int(domain.RecurrentStatusDeactivatedByMerchant)
	}
	g.executions++
	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) lookupRecurrent(w http.ResponseWriter, r *http.Request) (*cielo.RecurrentConsult, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "recurrentPaymentId"))
	rec, ok := g.recurrents[id]
	if err != nil || !ok {
		writeErrors(w, http.StatusNotFound, cielo.ErrCodeRecurrentPaymentMissing, "Recurrent Payment not found")
		return nil, false
	}
	return rec, true
}

// ──────────────────────────────────────────────
// Auxiliares
// ──────────────────────────────────────────────

func (g *Gateway) link(method, rel, path string) cielo.SaleLink {
	return cielo.SaleLink{Method: method, Rel: rel, Href: g.server.URL + path}
}

func paymentState(p cielo.SalePayment) domain.Payment {
	status := domain.StatusNotFinished
	if p.Status != nil {
		status = domain.Status(*p.Status)
	}
	paymentType, _ := domain.ParsePaymentType(p.Type)
	return domain.Payment{
		Type:           paymentType,
		Amount:         domain.Cents(p.Amount),
		Status:         status,
		CapturedAmount: domain.Cents(p.CapturedAmount),
		VoidedAmount:   domain.Cents(p.VoidedAmount),
	}
}

func setStatus(p *cielo.SalePayment, s domain.Status) {
	v := int(s)
	p.Status = &v
}

func mask(number string) string {
	if len(number) < 10 {
		return strings.Repeat("*", len(number))
	}
	return number[:6] + strings.Repeat("*", len(number)-10) + number[len(number)-4:]
}

func writeErrors(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, []cielo.CieloError{{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
