package valuation

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/tools"
)

type DataSource interface {
	Lots(ctx context.Context, account string) ([]model.InvestmentLot, error)
	Instruments(ctx context.Context, codes []string) (map[string]model.Instrument, error)
	PriceHistory(ctx context.Context, code string, from time.Time) ([]model.PricePoint, error)
}

// Service values the stored portfolio on request.
type Service struct {
	source DataSource
	engine *Engine
	now    func() time.Time

	logger logger.Logger
}

func NewService(source DataSource, engine *Engine, logger logger.Logger) *Service {
	return &Service{
		source: source,
		engine: engine,
		now:    time.Now,
		logger: logger,
	}
}

// Summary values every instrument held by account (all accounts when empty),
// optionally restricted to purchases of the given kinds. It returns nil when
// there are no matching lots.
func (s *Service) Summary(ctx context.Context, account string, kinds ...model.LotKind) (*model.PortfolioSummary, error) {
	vals, flows, err := s.valuations(ctx, account, kinds)
	if err != nil || vals == nil {
		return nil, err
	}
	return Summarize(vals, flows, tools.Day(s.now())), nil
}

// Realized returns realized P&L per financial year.
func (s *Service) Realized(ctx context.Context, account string, kinds ...model.LotKind) ([]model.FinancialYearRealized, error) {
	vals, _, err := s.valuations(ctx, account, kinds)
	if err != nil {
		return nil, err
	}
	return RealizedByFinancialYear(vals), nil
}

func (s *Service) valuations(ctx context.Context, account string, kinds []model.LotKind) ([]model.HoldingValuation, []model.CashFlow, error) {
	lots, err := s.source.Lots(ctx, account)
	if err != nil {
		return nil, nil, err
	}

	byCode := make(map[string][]model.InvestmentLot)
	for _, l := range FilterLots(lots, kinds...) {
		byCode[l.Code] = append(byCode[l.Code], l)
	}
	if len(kinds) > 0 {
		// instruments with no purchase of the requested kinds
		maps.DeleteFunc(byCode, func(_ string, lots []model.InvestmentLot) bool {
			return !slices.ContainsFunc(lots, func(l model.InvestmentLot) bool { return !l.IsRedemption() })
		})
	}
	if len(byCode) == 0 {
		return nil, nil, nil
	}
	codes := slices.Sorted(maps.Keys(byCode))

	instruments, err := s.source.Instruments(ctx, codes)
	if err != nil {
		return nil, nil, err
	}

	asOf := tools.Day(s.now())
	from := asOf.AddDate(0, 0, -s.engine.cfg.Week52Days)

	vals := make([]model.HoldingValuation, 0, len(codes))
	var flows []model.CashFlow
	for _, code := range codes {
		inst, ok := instruments[code]
		if !ok {
			s.logger.Warnf("no instrument record for %s, valuing at zero price", code)
			inst = model.Instrument{Code: code}
		}

		history, err := s.source.PriceHistory(ctx, code, from)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: can't value %s", err, code)
		}

		v := s.engine.Value(inst, byCode[code], history, asOf, kinds...)
		vals = append(vals, v)
		flows = append(flows, Replay(byCode[code], s.engine.Epsilon(), kinds...).Flows...)
	}

	return vals, flows, nil
}
