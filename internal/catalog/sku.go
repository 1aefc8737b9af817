package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var skuPattern = regexp.MustCompile(`^([A-Z]{1,3})-([A-Z0-9]{0,3})-(\d{5,})$`)

// SKUSequence issues SKUs of the form BRD-NAM-00001. Each import run owns
// its own sequence so runs are reproducible.
type SKUSequence struct {
	last int
}

// NewSKUSequence returns a sequence whose first SKU uses counter start+1.
func NewSKUSequence(start int) *SKUSequence {
	return &SKUSequence{last: start}
}

// Next returns the SKU for a product and advances the counter.
func (s *SKUSequence) Next(name, brand string) string {
	s.last++

	brandPart := keepUpper(brand, false, 3)
	if brandPart == "" {
		brandPart = "AVN"
	}
	namePart := keepUpper(name, true, 3)

	return fmt.Sprintf("%s-%s-%05d", brandPart, namePart, s.last)
}

// Last returns the most recently issued counter.
func (s *SKUSequence) Last() int {
	return s.last
}

func keepUpper(s string, digits bool, max int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if b.Len() >= max {
			break
		}
		if r >= 'A' && r <= 'Z' || digits && r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SKUCounter returns the numeric suffix of a well-formed SKU.
func SKUCounter(sku string) (int, bool) {
	m := skuPattern.FindStringSubmatch(sku)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidSKU reports whether sku has the BRD-NAM-00001 shape.
func ValidSKU(sku string) bool {
	return skuPattern.MatchString(sku)
}

// MaxSKUCounter returns the highest counter among well-formed SKUs, or 0.
func MaxSKUCounter(products []Product) int {
	max := 0
	for _, p := range products {
		if n, ok := SKUCounter(p.SKU); ok && n > max {
			max = n
		}
	}
	return max
}
