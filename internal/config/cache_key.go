package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PublicCatalogKey returns the cache key for the account-facing exam listing.
func (r *CacheKeyStruct) PublicCatalogKey() string {
	return "catalog:public"
}

// PublicCatalogLevelKey returns the cache key for the listing filtered to one class level.
func (r *CacheKeyStruct) PublicCatalogLevelKey(classLevel int) string {
	return fmt.Sprintf("catalog:public:class:%d", classLevel)
}

// PublicCatalogPattern matches every cached listing variant.
func (r *CacheKeyStruct) PublicCatalogPattern() string {
	return "catalog:public*"
}

var CacheKey = NewCacheKeyStruct()
