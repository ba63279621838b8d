package blocklist

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/ub-admin/internal/console/common/utils"
)

const (
	indexCacheSize    = 4096
	bloomFalsePosRate = 0.001
)

// Index answers "is this domain currently blocked?" without holding the
// whole aggregate in memory. Lookups pass through a bloom filter (a
// negative is definitive), then an LRU of recent verdicts, and only then
// scan the policy file for the authoritative answer.
type Index struct {
	mu         sync.RWMutex
	filter     *bloom.BloomFilter
	cache      *lru.Cache[string, bool]
	policyPath string
}

// NewIndex builds an empty Index over the policy file at policyPath.
// Populate it with Load or let the aggregator Rebuild it after a refresh.
func NewIndex(policyPath string) (*Index, error) {
	cache, err := lru.New[string, bool](indexCacheSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create lookup cache: %w", err)
	}
	return &Index{
		filter:     bloom.NewWithEstimates(1, bloomFalsePosRate),
		cache:      cache,
		policyPath: policyPath,
	}, nil
}

// Rebuild replaces the filter with one sized for the new aggregate and
// drops all cached verdicts.
func (i *Index) Rebuild(domains []string) {
	n := uint(len(domains))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, bloomFalsePosRate)
	for _, d := range domains {
		filter.AddString(d)
	}

	i.mu.Lock()
	i.filter = filter
	i.mu.Unlock()
	i.cache.Purge()
}

// Load seeds the index from the policy file on disk, so lookups work
// before the first refresh of the process lifetime. A missing file is an
// empty aggregate, not an error.
func (i *Index) Load() error {
	f, err := os.Open(i.policyPath)
	if err != nil {
		if os.IsNotExist(err) {
			i.Rebuild(nil)
			return nil
		}
		return err
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if d, ok := parsePolicyLine(scanner.Text()); ok {
			domains = append(domains, d)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	i.Rebuild(domains)
	return nil
}

// Blocked reports whether name is in the current aggregate.
func (i *Index) Blocked(name string) (bool, error) {
	name = utils.CanonicalDomain(name)
	if name == "" {
		return false, nil
	}

	i.mu.RLock()
	maybe := i.filter.TestString(name)
	i.mu.RUnlock()
	if !maybe {
		return false, nil
	}

	if verdict, ok := i.cache.Get(name); ok {
		return verdict, nil
	}

	blocked, err := i.scanPolicy(name)
	if err != nil {
		return false, err
	}
	i.cache.Add(name, blocked)
	return blocked, nil
}

// scanPolicy confirms a bloom hit against the policy file itself.
func (i *Index) scanPolicy(name string) (bool, error) {
	f, err := os.Open(i.policyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if d, ok := parsePolicyLine(scanner.Text()); ok && d == name {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// parsePolicyLine extracts the domain from one exclusion directive, the
// inverse of writePolicy's rendering.
func parsePolicyLine(line string) (string, bool) {
	var quoted string
	if _, err := fmt.Sscanf(line, "local-zone: %q always_refuse", &quoted); err != nil {
		return "", false
	}
	return utils.CanonicalDomain(quoted), true
}
