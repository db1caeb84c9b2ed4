package idgen

import "github.com/cespare/xxhash/v2"

const (
	// ShopIDSpace / SpuIDSpace: 名称哈希截断到 8 位十进制
	ShopIDSpace = 100_000_000
	SpuIDSpace  = 100_000_000
	// CategoryIDSpace 类目 ID 落在 [1, 1000]
	CategoryIDSpace = 1000
)

// NameID 由名称哈希得到的稳定 ID，范围 [0, space)。
// 同名必同 ID；不同名可能碰撞，压测数据接受这一点。
func NameID(name string, space uint64) int64 {
	return int64(xxhash.Sum64String(name) % space)
}

func ShopID(shopName string) int64 { return NameID(shopName, ShopIDSpace) }

func SpuID(productName string) int64 { return NameID(productName, SpuIDSpace) }

func CategoryID(category string) int64 { return NameID(category, CategoryIDSpace) + 1 }
