package models

// Stock is the tri-state outcome of one availability check. A raw bool can't
// distinguish "known out of stock" from "couldn't tell", so checks report one
// of three values.
type Stock int

const (
	StockUnknown Stock = iota
	StockOut
	StockIn
)

// Determination is the result of checking one product page at one store.
// Title is filled opportunistically when the page yields one. Reason is only
// populated for inconclusive results and is used for logging, never persisted.
type Determination struct {
	Stock  Stock
	Title  string
	Reason string
}

func InStock(title string) Determination {
	return Determination{Stock: StockIn, Title: title}
}

func OutOfStock(title string) Determination {
	return Determination{Stock: StockOut, Title: title}
}

func Inconclusive(reason string) Determination {
	return Determination{Stock: StockUnknown, Reason: reason}
}

func (d Determination) Conclusive() bool {
	return d.Stock != StockUnknown
}

func (d Determination) IsInStock() bool {
	return d.Stock == StockIn
}
