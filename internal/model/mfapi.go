package model

type SchemeMeta struct {
	FundHouse      string `json:"fund_house"`
	SchemeType     string `json:"scheme_type"`
	SchemeCategory string `json:"scheme_category"`
	SchemeCode     any    `json:"scheme_code"`
	SchemeName     string `json:"scheme_name"`
}

type SchemeNAV struct {
	Date string `json:"date"`
	NAV  string `json:"nav"`
}

// SchemeResponse is the payload of the secondary history source.
type SchemeResponse struct {
	Meta   SchemeMeta  `json:"meta"`
	Data   []SchemeNAV `json:"data"`
	Status string      `json:"status"`
}

type SchemeErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
