package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smartspend/smartspend/internal/category"
)

func mercadoCentralReceipt() *Receipt {
	return &Receipt{
		ID:       "r1",
		OwnerID:  "1",
		Merchant: "Mercado Central",
		Date:     "2026-01-30",
		Total:    150.00,
		Category: category.Limpeza,
		Items: []Item{
			{Name: "Detergente", UnitValue: 10, Quantity: 1, Category: category.Limpeza},
			{Name: "Arroz", UnitValue: 140, Quantity: 1, Category: category.Alimentos},
		},
	}
}

var _ = Describe("Summarize", func() {
	When("the receipt set is empty", func() {
		It("should return the fixed zero-valued summary", func() {
			s := Summarize(nil)
			Expect(s.TotalSpent).To(BeZero())
			Expect(s.EstimatedSavings).To(BeZero())
			Expect(s.PurchaseCount).To(BeZero())
			Expect(s.Categories).To(BeEmpty())
			Expect(s.Feed).To(BeEmpty())
			Expect(s.MostRecent).To(BeNil())
		})
	})

	When("summarizing a single receipt", func() {
		var s *Summary

		BeforeEach(func() {
			s = Summarize([]*Receipt{mercadoCentralReceipt()})
		})

		It("should total the stored receipt totals", func() {
			Expect(s.TotalSpent).To(Equal(150.00))
		})

		It("should estimate savings at ten percent", func() {
			Expect(s.EstimatedSavings).To(Equal(15.00))
		})

		It("should break categories down by item-level values", func() {
			Expect(s.Categories).To(Equal([]CategoryTotal{
				{Name: category.Alimentos, Value: 140.00, Color: category.Color(category.Alimentos)},
				{Name: category.Limpeza, Value: 10.00, Color: category.Color(category.Limpeza)},
			}))
		})

		It("should expose the receipt as most recent", func() {
			Expect(s.MostRecent).NotTo(BeNil())
			Expect(s.MostRecent.ID).To(Equal("r1"))
		})
	})

	It("should be idempotent", func() {
		receipts := []*Receipt{mercadoCentralReceipt()}
		Expect(Summarize(receipts)).To(Equal(Summarize(receipts)))
	})

	It("should omit zero-valued categories", func() {
		r := mercadoCentralReceipt()
		r.Items = append(r.Items, Item{Name: "Brinde", UnitValue: 0, Quantity: 1, Category: category.Lazer})
		s := Summarize([]*Receipt{r})
		for _, ct := range s.Categories {
			Expect(ct.Value).To(BeNumerically(">", 0))
		}
	})

	It("should reconcile the breakdown against the item values, not the totals", func() {
		r := mercadoCentralReceipt()
		// stored total deliberately diverges from the item sum
		r.Total = 999.99
		s := Summarize([]*Receipt{r})

		var breakdownSum, itemSum float64
		for _, ct := range s.Categories {
			breakdownSum += ct.Value
		}
		for _, item := range r.Items {
			itemSum += item.Total()
		}
		Expect(breakdownSum).To(Equal(itemSum))
		Expect(s.TotalSpent).To(Equal(999.99))
	})

	It("should multiply unit values by quantity", func() {
		r := mercadoCentralReceipt()
		r.Items = []Item{{Name: "Cerveja", UnitValue: 5, Quantity: 12, Category: category.Bebidas}}
		s := Summarize([]*Receipt{r})
		Expect(s.Categories).To(HaveLen(1))
		Expect(s.Categories[0].Value).To(Equal(60.00))
	})

	It("should sort the feed by date descending", func() {
		older := mercadoCentralReceipt()
		older.ID = "older"
		older.Date = "2026-01-01"
		newest := mercadoCentralReceipt()
		newest.ID = "newest"
		newest.Date = "2026-02-15"

		s := Summarize([]*Receipt{older, newest})
		Expect(s.Feed[0].ID).To(Equal("newest"))
		Expect(s.Feed[1].ID).To(Equal("older"))
		Expect(s.MostRecent.ID).To(Equal("newest"))
	})
})

var _ = Describe("Fold", func() {
	newReceipt := func(id, date string, total float64, items []Item) *Receipt {
		return &Receipt{
			ID:       id,
			OwnerID:  "1",
			Merchant: "Mercado " + id,
			Date:     date,
			Total:    total,
			Category: category.Alimentos,
			Items:    items,
		}
	}

	It("should equal full recomputation for an empty base", func() {
		r := mercadoCentralReceipt()
		Expect(Fold(Summarize(nil), r)).To(Equal(Summarize([]*Receipt{r})))
	})

	It("should equal full recomputation when folding a newer receipt", func() {
		base := []*Receipt{
			newReceipt("a", "2026-01-10", 50, []Item{{Name: "Arroz", UnitValue: 50, Quantity: 1, Category: category.Alimentos}}),
			newReceipt("b", "2026-01-20", 30, []Item{{Name: "Suco", UnitValue: 30, Quantity: 1, Category: category.Bebidas}}),
		}
		extra := newReceipt("c", "2026-02-01", 20, []Item{{Name: "Detergente", UnitValue: 20, Quantity: 1, Category: category.Limpeza}})

		Expect(Fold(Summarize(base), extra)).To(Equal(Summarize(append(base, extra))))
	})

	It("should equal full recomputation when folding an older receipt", func() {
		base := []*Receipt{
			newReceipt("a", "2026-01-10", 50, []Item{{Name: "Arroz", UnitValue: 50, Quantity: 1, Category: category.Alimentos}}),
			newReceipt("b", "2026-01-20", 30, []Item{{Name: "Suco", UnitValue: 30, Quantity: 1, Category: category.Bebidas}}),
		}
		extra := newReceipt("c", "2026-01-01", 20, []Item{{Name: "Pano", UnitValue: 20, Quantity: 1, Category: category.Limpeza}})

		Expect(Fold(Summarize(base), extra)).To(Equal(Summarize(append(base, extra))))
	})

	It("should equal full recomputation when dates collide", func() {
		base := []*Receipt{
			newReceipt("a", "2026-01-10", 50, nil),
			newReceipt("b", "2026-01-10", 30, nil),
		}
		extra := newReceipt("c", "2026-01-10", 20, nil)

		Expect(Fold(Summarize(base), extra)).To(Equal(Summarize(append(base, extra))))
	})

	It("should equal full recomputation with sub-cent item values", func() {
		// 3-decimal unit prices, as printed on fuel pump receipts
		base := []*Receipt{
			newReceipt("a", "2026-01-10", 10.004, []Item{{Name: "Etanol", UnitValue: 10.004, Quantity: 1, Category: category.Combustivel}}),
		}
		extra := newReceipt("b", "2026-01-11", 2.003, []Item{{Name: "Gasolina Comum", UnitValue: 2.003, Quantity: 1, Category: category.Combustivel}})

		folded := Fold(Summarize(base), extra)
		Expect(folded).To(Equal(Summarize(append(base, extra))))
		Expect(folded.TotalSpent).To(Equal(12.01))
		Expect(folded.Categories).To(HaveLen(1))
		Expect(folded.Categories[0].Value).To(Equal(12.01))
	})

	It("should stay equal to full recomputation across repeated folds", func() {
		receipts := []*Receipt{
			newReceipt("a", "2026-01-10", 1.001, []Item{{Name: "Etanol", UnitValue: 1.001, Quantity: 1, Category: category.Combustivel}}),
			newReceipt("b", "2026-01-11", 1.002, []Item{{Name: "Etanol", UnitValue: 1.002, Quantity: 1, Category: category.Combustivel}}),
			newReceipt("c", "2026-01-12", 1.003, []Item{{Name: "Etanol", UnitValue: 1.003, Quantity: 1, Category: category.Combustivel}}),
		}

		folded := Summarize(nil)
		for _, r := range receipts {
			folded = Fold(folded, r)
		}
		Expect(folded).To(Equal(Summarize(receipts)))
	})

	It("should accumulate into existing categories", func() {
		base := []*Receipt{
			newReceipt("a", "2026-01-10", 50, []Item{{Name: "Arroz", UnitValue: 50, Quantity: 1, Category: category.Alimentos}}),
		}
		extra := newReceipt("b", "2026-01-11", 25, []Item{{Name: "Feijão", UnitValue: 25, Quantity: 1, Category: category.Alimentos}})

		folded := Fold(Summarize(base), extra)
		Expect(folded.Categories).To(HaveLen(1))
		Expect(folded.Categories[0].Value).To(Equal(75.00))
	})
})
