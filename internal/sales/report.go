package sales

import (
	"sort"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
	"github.com/gwangju-cafe/cafe-backend/internal/orders"
)

// Row is one sold line item, flattened for dashboard tables.
type Row struct {
	OrderID   string             `json:"order_id"`
	Username  string             `json:"username"`
	Name      string             `json:"name"`
	Size      string             `json:"size"`
	Category  string             `json:"category"`
	UnitPrice int64              `json:"unit_price"`
	Quantity  int                `json:"quantity"`
	LineTotal int64              `json:"line_total"`
	Status    domain.OrderStatus `json:"status"`
	Rating    int                `json:"rating"`
	PlacedAt  string             `json:"placed_at"`
}

type ProductSales struct {
	Name     string `json:"name"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

type Report struct {
	Orders          int              `json:"orders"`
	ItemsSold       int              `json:"items_sold"`
	ItemsRevenue    int64            `json:"items_revenue"`
	ShippingRevenue int64            `json:"shipping_revenue"`
	GrossRevenue    int64            `json:"gross_revenue"`
	AverageOrder    int64            `json:"average_order"`
	AverageRating   float64          `json:"average_rating"`
	TopProduct      *ProductSales    `json:"top_product,omitempty"`
	Products        []ProductSales   `json:"products"`
	CategoryRevenue map[string]int64 `json:"category_revenue"`
	DailyRevenue    map[string]int64 `json:"daily_revenue"`
	Rows            []Row            `json:"rows"`
}

// BuildReport aggregates finished orders into the sales dashboard view.
// Free promotional lines count toward quantities but not revenue.
// Products no longer in the catalog fall into the "Other" category.
func BuildReport(completed []orders.CustomerOrder, catalog []domain.Product) *Report {
	categories := make(map[string]string, len(catalog))
	for _, product := range catalog {
		categories[product.ID] = product.Category
		categories[product.Name+"\x00"+product.Size] = product.Category
	}

	report := &Report{
		Products:        []ProductSales{},
		CategoryRevenue: make(map[string]int64),
		DailyRevenue:    make(map[string]int64),
		Rows:            []Row{},
	}

	byProduct := make(map[string]*ProductSales)
	var ratings, ratedOrders int

	for _, order := range completed {
		report.Orders++
		report.ItemsRevenue += order.ItemsTotal
		report.ShippingRevenue += order.ShippingFee
		report.GrossRevenue += order.FinalTotal
		report.DailyRevenue[order.PlacedAt.Format("2006-01-02")] += order.FinalTotal

		if order.Rating > 0 {
			ratings += order.Rating
			ratedOrders++
		}

		for _, item := range order.Items {
			report.ItemsSold += item.Quantity

			category, ok := categories[item.ProductID]
			if !ok {
				category, ok = categories[item.Name+"\x00"+item.Size]
			}
			if !ok {
				category = "Other"
			}
			report.CategoryRevenue[category] += item.Subtotal()

			key := item.Name + "\x00" + item.Size
			sales, ok := byProduct[key]
			if !ok {
				sales = &ProductSales{Name: item.Name, Size: item.Size}
				byProduct[key] = sales
			}
			sales.Quantity += item.Quantity
			sales.Revenue += item.Subtotal()

			report.Rows = append(report.Rows, Row{
				OrderID:   order.ID,
				Username:  order.Username,
				Name:      item.Name,
				Size:      item.Size,
				Category:  category,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
				LineTotal: item.Subtotal(),
				Status:    order.Status,
				Rating:    order.Rating,
				PlacedAt:  order.PlacedAt.Format("2006-01-02"),
			})
		}
	}

	if report.Orders > 0 {
		report.AverageOrder = report.GrossRevenue / int64(report.Orders)
	}
	if ratedOrders > 0 {
		report.AverageRating = float64(ratings) / float64(ratedOrders)
	}

	for _, sales := range byProduct {
		report.Products = append(report.Products, *sales)
	}
	sort.Slice(report.Products, func(i, j int) bool {
		if report.Products[i].Quantity != report.Products[j].Quantity {
			return report.Products[i].Quantity > report.Products[j].Quantity
		}
		return report.Products[i].Name < report.Products[j].Name
	})
	if len(report.Products) > 0 {
		top := report.Products[0]
		report.TopProduct = &top
	}

	return report
}
