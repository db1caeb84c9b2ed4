package refdata

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
)

// Region 选中的 省/市/区 三级组合，只用于填充地址，不单独落库。
type Region struct {
	ProvinceID   int64
	ProvinceName string
	CityID       int64
	CityName     string
	AreaID       int64
	AreaName     string
}

// RegionNode 行政区划树节点 {code, name, children}。
// 直辖市的下级节点带 city 字段且没有 children，解析时记录这两个字段是否出现。
type RegionNode struct {
	ID       int64
	Name     string
	Children []RegionNode

	hasCity     bool
	hasChildren bool
}

func (n *RegionNode) UnmarshalJSON(b []byte) error {
	var raw struct {
		Code     json.Number     `json:"code"`
		Name     string          `json:"name"`
		City     json.RawMessage `json:"city"`
		Children *[]RegionNode   `json:"children"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	id, err := raw.Code.Int64()
	if err != nil {
		return fmt.Errorf("region %q: invalid code %q", raw.Name, raw.Code.String())
	}
	n.ID = id
	n.Name = raw.Name
	n.hasCity = raw.City != nil
	n.hasChildren = raw.Children != nil
	if raw.Children != nil {
		n.Children = *raw.Children
	}
	return nil
}

// RegionTree 省 → 市 → 区 三级树
type RegionTree struct {
	Provinces []RegionNode
}

// ParseRegions 解析 level.json，顶层必须是非空的省份数组。
func ParseRegions(data []byte) (*RegionTree, error) {
	var provinces []RegionNode
	if err := json.Unmarshal(data, &provinces); err != nil {
		return nil, fmt.Errorf("%w: parse regions: %v", ErrReferenceData, err)
	}
	if len(provinces) == 0 {
		return nil, fmt.Errorf("%w: region tree is empty", ErrReferenceData)
	}
	return &RegionTree{Provinces: provinces}, nil
}

// Pick 随机选一个省，再按直辖市/普通省两种结构取到区一级。
// 第二个返回值为 false 表示解析失败（省下无子节点、市下无区），调用方需自行兜底。
func (t *RegionTree) Pick(r *rand.Rand) (Region, bool) {
	province := t.Provinces[r.IntN(len(t.Provinces))]
	if len(province.Children) == 0 {
		return Region{}, false
	}

	if isMunicipality(province) {
		// 直辖市：省市同一，区直接取省的下级
		area := province.Children[r.IntN(len(province.Children))]
		return Region{
			ProvinceID:   province.ID,
			ProvinceName: province.Name,
			CityID:       province.ID,
			CityName:     province.Name,
			AreaID:       area.ID,
			AreaName:     area.Name,
		}, true
	}

	city := province.Children[r.IntN(len(province.Children))]
	if len(city.Children) == 0 {
		return Region{}, false
	}
	area := city.Children[r.IntN(len(city.Children))]
	return Region{
		ProvinceID:   province.ID,
		ProvinceName: province.Name,
		CityID:       city.ID,
		CityName:     city.Name,
		AreaID:       area.ID,
		AreaName:     area.Name,
	}, true
}

// isMunicipality 只看第一个下级节点：带 city 标记且没有 children
func isMunicipality(province RegionNode) bool {
	first := province.Children[0]
	return first.hasCity && !first.hasChildren
}
