package export

// CellFill is presentation-only styling carried alongside a sheet. It never
// influences cell values.
type CellFill struct {
	PatternType string `json:"pattern_type"`
	FgColor     string `json:"fg_color"`
}

// cellFills maps per-cell export states onto fills. Unknown states get no
// fill rather than a default.
var cellFills = map[string]CellFill{
	"corrected": {PatternType: "solid", FgColor: "FFC6EFCE"},
	"pending":   {PatternType: "solid", FgColor: "FFFFEB9C"},
	"flagged":   {PatternType: "solid", FgColor: "FFFFC7CE"},
	"cleared":   {PatternType: "solid", FgColor: "FFDDEBF7"},
}

// applyCellFills attaches fill metadata for each annotated cell. Rows are
// left untouched.
func applyCellFills(sheet *Sheet, states map[string]string) {
	if len(states) == 0 {
		return
	}
	for ref, state := range states {
		fill, ok := cellFills[state]
		if !ok {
			continue
		}
		if sheet.Fills == nil {
			sheet.Fills = make(map[string]CellFill)
		}
		sheet.Fills[ref] = fill
	}
}
