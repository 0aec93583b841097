package category

import "strings"

// Category is one of the fixed spending classes used across the dashboard.
type Category string

const (
	Alimentos   Category = "Alimentos"
	Bebidas     Category = "Bebidas"
	Limpeza     Category = "Limpeza"
	Farmacia    Category = "Farmácia"
	Combustivel Category = "Combustível"
	Restaurante Category = "Restaurante"
	Lazer       Category = "Lazer"
	Servicos    Category = "Serviços"
	Outros      Category = "Outros"
)

// All lists every category in its fixed display order. The dashboard chart
// and the breakdown emit categories in this order.
var All = []Category{
	Alimentos,
	Bebidas,
	Limpeza,
	Farmacia,
	Combustivel,
	Restaurante,
	Lazer,
	Servicos,
	Outros,
}

// colors holds the chart color for each category.
var colors = map[Category]string{
	Alimentos:   "#10b981",
	Bebidas:     "#f59e0b",
	Limpeza:     "#8b5cf6",
	Farmacia:    "#ef4444",
	Combustivel: "#3b82f6",
	Restaurante: "#f97316",
	Lazer:       "#ec4899",
	Servicos:    "#06b6d4",
	Outros:      "#6b7280",
}

// Color returns the chart color for a category. Unknown categories get the
// Outros color.
func Color(c Category) string {
	if color, ok := colors[c]; ok {
		return color
	}
	return colors[Outros]
}

// keywordRule associates a category with the product-name substrings that
// select it.
type keywordRule struct {
	category Category
	keywords []string
}

// keywordRules are tested in order; the first matching keyword wins. Bebidas
// is checked before Limpeza, which is checked before the food keywords, so
// "água sanitária"-style overlaps resolve toward the earlier category.
var keywordRules = []keywordRule{
	{Bebidas, []string{"cerveja", "vinho", "refrigerante", "suco", "água", "agua", "bebida", "drink", "whisky", "vodka", "cachaça", "energético"}},
	{Limpeza, []string{"sabão", "sabao", "detergente", "limpa", "papel", "alvejante", "desinfetante", "vassoura", "pano", "esponja", "amaciante"}},
	{Farmacia, []string{"remédio", "remedio", "dipirona", "paracetamol", "vitamina", "farmácia", "farmacia", "curativo", "pomada"}},
	{Combustivel, []string{"gasolina", "etanol", "diesel", "combustível", "combustivel", "gnv"}},
	{Restaurante, []string{"refeição", "refeicao", "marmita", "lanche", "pizza", "hambúrguer", "hamburguer"}},
	{Lazer, []string{"cinema", "ingresso", "brinquedo", "jogo", "revista"}},
	{Servicos, []string{"serviço", "servico", "taxa", "manutenção", "manutencao", "lavagem"}},
	{Alimentos, []string{"arroz", "feijão", "feijao", "macarrão", "macarrao", "carne", "frango", "peixe", "leite", "queijo", "pão", "pao", "ovo", "fruta", "verdura", "legume", "açúcar", "acucar", "sal", "óleo", "oleo", "farinha", "café", "cafe", "biscoito", "bolacha", "iogurte", "manteiga", "margarina", "tomate", "cebola", "batata", "banana", "alimento"}},
}

// Categorize maps a free-text product name to a category using substring
// heuristics. It is deterministic and total: unmatched names fall through to
// Outros.
func Categorize(productName string) Category {
	name := strings.ToLower(productName)
	for _, rule := range keywordRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(name, keyword) {
				return rule.category
			}
		}
	}
	return Outros
}

// labels maps free-text category labels, accent variants included, onto the
// canonical set.
var labels = map[string]Category{
	"alimentos":   Alimentos,
	"bebidas":     Bebidas,
	"limpeza":     Limpeza,
	"farmácia":    Farmacia,
	"farmacia":    Farmacia,
	"combustível": Combustivel,
	"combustivel": Combustivel,
	"restaurante": Restaurante,
	"lazer":       Lazer,
	"serviços":    Servicos,
	"servicos":    Servicos,
	"outros":      Outros,
}

// Normalize maps a free-text category label onto the canonical enum. Labels
// that do not correspond to a known category become Outros. Used when reading
// category strings produced outside this package, e.g. legacy feed documents.
func Normalize(label string) Category {
	if c, ok := labels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return c
	}
	return Outros
}
