package refdata

import "errors"

var (
	// ErrReferenceData 基础数据缺失或无法解析，启动阶段直接退出。
	ErrReferenceData = errors.New("reference data")
	// ErrMalformedCatalog 商品目录中的条目不可用（价格区间非数字、店铺无商品等），在生成阶段暴露。
	ErrMalformedCatalog = errors.New("malformed catalog entry")
)
