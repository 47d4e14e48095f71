package category

import "strings"

// Category is the coarse product family of a transport plan.
type Category string

const (
	CrudeOil   Category = "cpo"
	Kernel     Category = "kernel"
	Shell      Category = "shell"
	EmptyBunch Category = "efb"
	Fiber      Category = "fiber"
	RefinedOil Category = "refined"
	Other      Category = "other"
)

// Certificate type prefixes.
const (
	PrefixKernel  = "PK"
	PrefixDefault = "CPO"
)

// Rule pairs a predicate with the category it yields.
type Rule struct {
	Category Category
	Match    func(text string) bool
}

func containsAny(keywords ...string) func(string) bool {
	return func(text string) bool {
		for _, k := range keywords {
			if strings.Contains(text, k) {
				return true
			}
		}
		return false
	}
}

var kernelKeywords = []string{"เมล็ดใน", "เนื้อใน", "kernel", "pko"}

// Rules are evaluated top to bottom; the first match wins.
var Rules = []Rule{
	{Category: CrudeOil, Match: containsAny("น้ำมันปาล์มดิบ", "น้ำมันดิบ", "cpo", "crude")},
	{Category: Kernel, Match: containsAny(kernelKeywords...)},
	{Category: Shell, Match: containsAny("กะลา", "shell")},
	{Category: EmptyBunch, Match: containsAny("ทะลายเปล่า", "ทะลายปาล์มเปล่า", "efb", "empty bunch", "empty fruit bunch")},
	{Category: Fiber, Match: containsAny("ใยปาล์ม", "เส้นใย", "fiber", "fibre")},
	{Category: RefinedOil, Match: containsAny("น้ำมันปาล์มบริสุทธิ์", "บริสุทธิ์", "โอเลอีน", "refined", "rbd", "olein")},
}

// Of tags goods by name and code. Matching is case-insensitive on both.
func Of(goodsName, goodsCode string) Category {
	text := strings.ToLower(goodsName + " " + goodsCode)
	for _, r := range Rules {
		if r.Match(text) {
			return r.Category
		}
	}
	return Other
}

// CertificatePrefix picks the certificate type prefix from the goods name.
func CertificatePrefix(goodsName string) string {
	if containsAny(kernelKeywords...)(strings.ToLower(goodsName)) {
		return PrefixKernel
	}
	return PrefixDefault
}
