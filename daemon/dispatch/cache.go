package dispatch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"

	"hostgate.io/hg/daemon/catalog"
)

const resolutionCacheSize = 1024

//	resolutionCache remembers which member a (type, name, argument types)
//	combination resolved to. groupcache's lru is not safe for concurrent
//	use on its own.
type resolutionCache struct {
	mutex sync.Mutex
	lru   *lru.Cache
}

func newResolutionCache(size int) *resolutionCache {
	return &resolutionCache{lru: lru.New(size)}
}

func resolutionKey(owner *catalog.Type, kind catalog.MemberKind, name string, args []*catalog.Type) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%p/%d/%s", owner, kind, name)
	for _, arg := range args {
		fmt.Fprintf(&sb, "/%p", arg)
	}
	return sb.String()
}

func (c *resolutionCache) get(key string) (m *catalog.Member, ok bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	v, ok := c.lru.Get(key)
	if ok {
		m = v.(*catalog.Member)
	}
	return
}

func (c *resolutionCache) add(key string, m *catalog.Member) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.lru.Add(key, m)
}
