package refdata

import (
	"fmt"
	"os"
)

// Store 进程启动时加载一次的只读基础数据，所有 worker 共享读，无需加锁。
type Store struct {
	Regions *RegionTree
	Catalog *Catalog
}

// Load 读取行政区划和商品目录两份 JSON。
func Load(regionFile, catalogFile string) (*Store, error) {
	regionData, err := os.ReadFile(regionFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read region file: %v", ErrReferenceData, err)
	}
	regions, err := ParseRegions(regionData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", regionFile, err)
	}

	catalogData, err := os.ReadFile(catalogFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read catalog file: %v", ErrReferenceData, err)
	}
	catalog, err := ParseCatalog(catalogData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", catalogFile, err)
	}

	return &Store{Regions: regions, Catalog: catalog}, nil
}
