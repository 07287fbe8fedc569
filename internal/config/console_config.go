package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	apiOriginVar     = "API_ORIGIN"
	apiTimeoutVar    = "API_TIMEOUT"
	pageSizeVar      = "PAGE_SIZE"
	queryCacheTTLVar = "QUERY_CACHE_TTL"
)

type ConsoleConfig interface {
	GetAPIOrigin() string
	GetAPITimeout() time.Duration
	GetPageSize() int
	GetQueryCacheTTL() time.Duration
}

type Console struct {
	v *viper.Viper
}

var _ ConsoleConfig = Console{}

// GetAPIOrigin returns the base origin of the remote mentions API (e.g. "https://api.example.com")
func (c Console) GetAPIOrigin() string {
	return strings.TrimRight(c.v.GetString(apiOriginVar), "/")
}

func (c Console) GetAPITimeout() time.Duration {
	return c.v.GetDuration(apiTimeoutVar)
}

func (c Console) GetPageSize() int {
	size := c.v.GetInt(pageSizeVar)
	if size <= 0 {
		return 25
	}
	return size
}

func (c Console) GetQueryCacheTTL() time.Duration {
	return c.v.GetDuration(queryCacheTTLVar)
}
