package analysis

// assetRef ties a tradable symbol to why it is relevant.
type assetRef struct {
	symbol    string
	relevance string
}

// sectorRelatedAssets maps sectors/industries to the commodities, ETFs and
// indices that usually move with them. Industry matches take precedence over
// sector matches.
var sectorRelatedAssets = map[string][]assetRef{
	"Basic Materials": {
		{"GC=F", "commodity"}, {"SI=F", "commodity"}, {"HG=F", "commodity"},
		{"GLD", "etf"}, {"SLV", "etf"}, {"XME", "etf"},
		{"^GSPC", "index"},
	},
	"Gold": {
		{"GC=F", "commodity"}, {"SI=F", "commodity"},
		{"GLD", "etf"}, {"GDX", "etf"}, {"GDXJ", "etf"},
		{"^HUI", "index"},
	},
	"Technology": {
		{"QQQ", "etf"}, {"XLK", "etf"}, {"SMH", "etf"},
		{"^IXIC", "index"}, {"^SOX", "index"},
	},
	"Semiconductors": {
		{"SMH", "etf"}, {"SOXX", "etf"},
		{"^SOX", "index"},
	},
	"Energy": {
		{"CL=F", "commodity"}, {"NG=F", "commodity"},
		{"XLE", "etf"}, {"USO", "etf"},
		{"^GSPC", "index"},
	},
	"Financial": {
		{"XLF", "etf"}, {"KRE", "etf"},
		{"^GSPC", "index"}, {"^TNX", "index"},
	},
}

var assetNames = map[string]string{
	"GC=F":  "Gold Futures",
	"SI=F":  "Silver Futures",
	"HG=F":  "Copper Futures",
	"CL=F":  "Crude Oil WTI",
	"NG=F":  "Natural Gas",
	"GLD":   "SPDR Gold Trust ETF",
	"SLV":   "iShares Silver Trust",
	"GDX":   "VanEck Gold Miners ETF",
	"GDXJ":  "VanEck Junior Gold Miners",
	"XME":   "SPDR Metals & Mining ETF",
	"QQQ":   "Invesco QQQ Trust",
	"XLK":   "Technology Select SPDR",
	"SMH":   "VanEck Semiconductor ETF",
	"SOXX":  "iShares Semiconductor ETF",
	"XLE":   "Energy Select SPDR",
	"USO":   "United States Oil Fund",
	"XLF":   "Financial Select SPDR",
	"KRE":   "SPDR Regional Banking ETF",
	"^GSPC": "S&P 500",
	"^IXIC": "Nasdaq Composite",
	"^SOX":  "Philadelphia Semiconductor",
	"^HUI":  "NYSE Arca Gold BUGS",
	"^TNX":  "10-Year Treasury Yield",
}

func relatedFor(sector, industry string) []assetRef {
	if refs, ok := sectorRelatedAssets[industry]; ok {
		return refs
	}
	if refs, ok := sectorRelatedAssets[sector]; ok {
		return refs
	}
	return nil
}

func assetName(symbol string) string {
	if name, ok := assetNames[symbol]; ok {
		return name
	}
	return symbol
}
