package synth

import (
	"math/rand/v2"
	"strings"
)

var (
	phoneKeywords   = []string{"手机", "phone"}
	laptopKeywords  = []string{"笔记本", "laptop", "notebook"}
	apparelKeywords = []string{"服饰", "鞋", "apparel", "shoes"}

	phoneSpecs  = []string{"8GB+128GB", "8GB+256GB", "12GB+256GB", "12GB+512GB"}
	laptopSpecs = []string{"i5+16GB+512GB", "i7+16GB+1TB", "i9+32GB+1TB"}
	sizeSpecs   = []string{"S", "M", "L", "XL", "XXL"}
	colorSpecs  = []string{"黑色", "白色", "灰色", "藏青色", "卡其色"}
)

// skuName 在商品名后追加规格：手机 → 存储组合，笔记本 → CPU 组合，
// 服饰/鞋类目 → 尺码 + 颜色。都不命中时 SKU 名就是商品名。
func skuName(r *rand.Rand, product, category string) string {
	var specs []string
	switch {
	case containsAny(product, phoneKeywords):
		specs = append(specs, pick(r, phoneSpecs))
	case containsAny(product, laptopKeywords):
		specs = append(specs, pick(r, laptopSpecs))
	case containsAny(category, apparelKeywords):
		specs = append(specs, pick(r, sizeSpecs), pick(r, colorSpecs))
	}
	if len(specs) == 0 {
		return product
	}
	return product + " " + strings.Join(specs, " ")
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
