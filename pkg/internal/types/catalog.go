package types

// CatalogItem 目录条目.
type CatalogItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// CatalogResponse 目录响应.
type CatalogResponse struct {
	Type  string        `json:"type"`
	Items []CatalogItem `json:"items"`
}

// MonsterExtra 怪物的派生元数据.
type MonsterExtra struct {
	RealmTier *int     `json:"realmTier,omitempty"`
	MapIDs    []string `json:"mapIds"`
	MapNames  []string `json:"mapNames"`
}
