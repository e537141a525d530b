package valuation

import (
	"database/sql"

	"github.com/STTM-NSU/fund-tracker/internal/model"
)

// instrumentRow tolerates NULL columns of instruments that were never enriched.
type instrumentRow struct {
	Code        string          `db:"code"`
	Name        sql.NullString  `db:"name"`
	AltID1      sql.NullString  `db:"alt_id_1"`
	AltID2      sql.NullString  `db:"alt_id_2"`
	Category    sql.NullString  `db:"category"`
	FundHouse   sql.NullString  `db:"fund_house"`
	Price       sql.NullFloat64 `db:"price"`
	PriceDate   sql.NullTime    `db:"price_date"`
	RefreshedAt sql.NullTime    `db:"refreshed_at"`
}

func (r instrumentRow) toModel() model.Instrument {
	inst := model.Instrument{
		Code:      r.Code,
		Name:      r.Name.String,
		AltID1:    r.AltID1.String,
		AltID2:    r.AltID2.String,
		Category:  r.Category.String,
		FundHouse: r.FundHouse.String,
		Price:     r.Price.Float64,
	}
	if r.PriceDate.Valid {
		inst.PriceDate = &r.PriceDate.Time
	}
	if r.RefreshedAt.Valid {
		inst.RefreshedAt = &r.RefreshedAt.Time
	}
	return inst
}
