package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Interval define a frequência da recorrência
type Interval int

const (
	IntervalMonthly Interval = iota + 1
	IntervalBimonthly
	IntervalQuarterly
	IntervalSemiAnnual
	IntervalAnnual
	IntervalWeekly
)

func (i Interval) String() string {
	switch i {
	case IntervalMonthly:
		return "Monthly"
	case IntervalBimonthly:
		return "Bimonthly"
	case IntervalQuarterly:
		return "Quarterly"
	case IntervalSemiAnnual:
		return "SemiAnnual"
	case IntervalAnnual:
		return "Annual"
	case IntervalWeekly:
		return "Weekly"
	default:
		return fmt.Sprintf("Interval(%d)", int(i))
	}
}

// ParseInterval converte o nome usado no gateway em Interval
func ParseInterval(s string) (Interval, error) {
	for _, i := range []Interval{IntervalMonthly, IntervalBimonthly, IntervalQuarterly, IntervalSemiAnnual, IntervalAnnual, IntervalWeekly} {
		if strings.EqualFold(i.String(), s) {
			return i, nil
		}
	}
	return 0, NewValidationError("payment.recurrentPayment.interval", fmt.Sprintf("intervalo desconhecido: %q", s))
}

// RecurrentPayment representa o agendamento recorrente de um pagamento.
// StartDate nil significa que a primeira cobrança é imediata.
type RecurrentPayment struct {
	Interval  Interval
	StartDate *time.Time
	EndDate   *time.Time

	// gateway
	RecurrentPaymentID uuid.UUID
	NextRecurrency     *time.Time
	Status             RecurrentStatus
	ReasonCode         int
	ReasonMessage      string
	Link               *Link
}

// NewRecurrentPayment cria um agendamento. Passe start nil para cobrar imediatamente.
func NewRecurrentPayment(interval Interval, start, end *time.Time) RecurrentPayment {
	return RecurrentPayment{
		Interval:  interval,
		StartDate: copyTime(start),
		EndDate:   copyTime(end),
	}
}

// AuthorizeNowAt indica se a primeira cobrança ocorre na própria criação.
// Datas de início até o dia de now (inclusive) autorizam imediatamente.
func (r RecurrentPayment) AuthorizeNowAt(now time.Time) bool {
	if r.StartDate == nil {
		return true
	}
	return !truncateDay(*r.StartDate).After(truncateDay(now))
}

// Active retorna true se o agendamento vai gerar novas cobranças. Antes do
// gateway informar um status, um agendamento recém-criado é considerado ativo.
func (r RecurrentPayment) Active() bool {
	if r.Status == 0 {
		return true
	}
	return r.Status.IsActive()
}

// Clone retorna uma cópia profunda
func (r RecurrentPayment) Clone() RecurrentPayment {
	cp := r
	cp.StartDate = copyTime(r.StartDate)
	cp.EndDate = copyTime(r.EndDate)
	cp.NextRecurrency = copyTime(r.NextRecurrency)
	if r.Link != nil {
		l := *r.Link
		cp.Link = &l
	}
	return cp
}

func (r *RecurrentPayment) validate() error {
	if r.Interval < IntervalMonthly || r.Interval > IntervalWeekly {
		return NewValidationError("payment.recurrentPayment.interval", "intervalo é obrigatório")
	}
	if r.StartDate != nil && r.EndDate != nil && !r.EndDate.After(*r.StartDate) {
		return NewValidationError("payment.recurrentPayment.endDate", "data final deve ser posterior à data inicial")
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
