package refdata

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"order_datagen/internal/idgen"
)

// Product 目录里的一个商品，price_range 为 [min, max]。
// 区间的合法性延迟到取价时校验，坏数据只影响碰到它的 worker。
type Product struct {
	Name       string            `json:"name"`
	PriceRange []json.RawMessage `json:"price_range"`
}

type Shop struct {
	Name     string
	Products []Product
}

type Category struct {
	Name  string
	Shops []Shop
}

// Catalog 类目 → 店铺 → 商品。JSON 里是嵌套 map，加载后按名称排序，
// 保证同一随机种子得到同样的选择序列。
type Catalog struct {
	Categories []Category
}

// Selection 一次下单选中的店铺和 1~3 个不重复商品
type Selection struct {
	ShopID   int64
	ShopName string
	Category string
	Products []Product
}

const maxProductsPerOrder = 3

func ParseCatalog(data []byte) (*Catalog, error) {
	var raw map[string]map[string][]Product
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse catalog: %v", ErrReferenceData, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", ErrReferenceData)
	}

	c := &Catalog{Categories: make([]Category, 0, len(raw))}
	for _, catName := range sortedKeys(raw) {
		shops := raw[catName]
		cat := Category{Name: catName, Shops: make([]Shop, 0, len(shops))}
		for _, shopName := range sortedKeys(shops) {
			cat.Shops = append(cat.Shops, Shop{Name: shopName, Products: shops[shopName]})
		}
		c.Categories = append(c.Categories, cat)
	}
	return c, nil
}

// Pick 均匀选类目、再选店铺，然后无放回抽取 1~min(3, 商品数) 个商品。
func (c *Catalog) Pick(r *rand.Rand) (Selection, error) {
	cat := c.Categories[r.IntN(len(c.Categories))]
	if len(cat.Shops) == 0 {
		return Selection{}, fmt.Errorf("%w: category %q has no shops", ErrMalformedCatalog, cat.Name)
	}
	shop := cat.Shops[r.IntN(len(cat.Shops))]
	if len(shop.Products) == 0 {
		return Selection{}, fmt.Errorf("%w: shop %q has no products", ErrMalformedCatalog, shop.Name)
	}

	n := 1 + r.IntN(min(maxProductsPerOrder, len(shop.Products)))
	picked := make([]Product, 0, n)
	for _, idx := range r.Perm(len(shop.Products))[:n] {
		picked = append(picked, shop.Products[idx])
	}

	return Selection{
		ShopID:   idgen.ShopID(shop.Name),
		ShopName: shop.Name,
		Category: cat.Name,
		Products: picked,
	}, nil
}

// Bounds 价格区间取整（向下），小数部分直接丢弃。
func (p Product) Bounds() (lo, hi int64, err error) {
	if len(p.PriceRange) < 2 {
		return 0, 0, fmt.Errorf("%w: product %q: price_range needs [min, max]", ErrMalformedCatalog, p.Name)
	}
	lo, err = priceBound(p.PriceRange[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: product %q: min price: %v", ErrMalformedCatalog, p.Name, err)
	}
	hi, err = priceBound(p.PriceRange[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: product %q: max price: %v", ErrMalformedCatalog, p.Name, err)
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("%w: product %q: min price %d > max price %d", ErrMalformedCatalog, p.Name, lo, hi)
	}
	return lo, hi, nil
}

// priceBound 接受数字或数字字符串
func priceBound(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	return int64(math.Floor(f)), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
