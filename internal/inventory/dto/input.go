package dto

type SellInput struct {
	ProductID string
	Quantity  int64
}

type RestockInput struct {
	ProductID string
	Quantity  int64
}

type OrderLine struct {
	ProductID string
	Quantity  int64
}

type SellOrderInput struct {
	OrderID string
	Lines   []OrderLine
}
