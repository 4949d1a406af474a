package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/aakaru/securelance/internal/domain"
)

const (
	rankingKeyPrefix = "sl:ranking:"
	profileKeyPrefix = "sl:profile:"

	rankingTTLSeconds = 30
	profileTTLSeconds = 300
)

// MemcachedRankingCache holds leaderboard projections for a short TTL so
// bursts of reads do not rescan the freelancer table.
type MemcachedRankingCache struct {
	mc *memcache.Client
}

func NewMemcachedRankingCache(mc *memcache.Client) *MemcachedRankingCache {
	return &MemcachedRankingCache{mc: mc}
}

func (c *MemcachedRankingCache) GetRanking(limit int) ([]domain.RankedFreelancer, bool) {
	item, err := c.mc.Get(fmt.Sprintf("%s%d", rankingKeyPrefix, limit))
	if err != nil {
		return nil, false
	}

	var ranking []domain.RankedFreelancer
	if err := json.Unmarshal(item.Value, &ranking); err != nil {
		return nil, false
	}
	return ranking, true
}

func (c *MemcachedRankingCache) SetRanking(limit int, ranking []domain.RankedFreelancer) {
	value, err := json.Marshal(ranking)
	if err != nil {
		return
	}
	c.mc.Set(&memcache.Item{
		Key:        fmt.Sprintf("%s%d", rankingKeyPrefix, limit),
		Value:      value,
		Expiration: rankingTTLSeconds,
	})
}

// MemcachedProfileCache holds public profiles, invalidated on update.
type MemcachedProfileCache struct {
	mc *memcache.Client
}

func NewMemcachedProfileCache(mc *memcache.Client) *MemcachedProfileCache {
	return &MemcachedProfileCache{mc: mc}
}

func (c *MemcachedProfileCache) GetProfile(id string) (domain.Identity, bool) {
	item, err := c.mc.Get(profileKeyPrefix + id)
	if err != nil {
		return domain.Identity{}, false
	}

	var identity domain.Identity
	if err := json.Unmarshal(item.Value, &identity); err != nil {
		return domain.Identity{}, false
	}
	return identity, true
}

func (c *MemcachedProfileCache) SetProfile(identity domain.Identity) {
	value, err := json.Marshal(identity)
	if err != nil {
		return
	}
	c.mc.Set(&memcache.Item{
		Key:        profileKeyPrefix + identity.ID,
		Value:      value,
		Expiration: profileTTLSeconds,
	})
}

func (c *MemcachedProfileCache) InvalidateProfile(id string) {
	c.mc.Delete(profileKeyPrefix + id)
}
