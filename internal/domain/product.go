package domain

// Product is the slice of the remote catalog entry the engines care about.
// The catalog itself lives behind an external API; products arrive here
// already resolved by the caller.
type Product struct {
	ID              int64   `json:"id" bson:"product_id"`
	Name            string  `json:"name" bson:"name"`
	Category        string  `json:"category" bson:"category"`
	UnitPrice       float64 `json:"unit_price" bson:"unit_price"`
	SaleFormatPrice float64 `json:"sale_format_price" bson:"sale_format_price"`
	ImageURL        string  `json:"image_url,omitempty" bson:"image_url,omitempty"`
}
