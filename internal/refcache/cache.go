// Package refcache provides the process-wide reference data cache: stage
// id to name/colour, employee id to display name, currency id to symbol.
//
// Each family is fetched at most once and then served from memory for the
// process lifetime; staleness is preferred over refetching per lookup. An
// optional Redis second level lets multiple instances share one fetch. Keys
// are written at most once and values are stable, so racing idempotent
// writes are safe.
package refcache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"casedesk_backend/internal/hierarchy/domain"
	"casedesk_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// ReferenceSource is the upstream reference data reader the cache populates
// itself from on first use.
type ReferenceSource interface {
	FetchStageDefinitions(ctx context.Context) ([]domain.StageDefinition, error)
	FetchEmployees(ctx context.Context) ([]domain.Employee, error)
	FetchCurrencies(ctx context.Context) ([]domain.Currency, error)
}

const redisKeyPrefix = "refcache:"

// Cache is the reference data cache. Construct with New and inject into
// consumers; it is safe for concurrent use.
type Cache struct {
	source ReferenceSource
	rdb    *redis.Client
	log    *logger.Logger

	mu              sync.RWMutex
	stages          map[string]domain.StageDefinition
	employees       map[int64]domain.Employee
	employeesByName map[string]int64
	currencies      map[int64]domain.Currency
	stagesLoaded    bool
	employeesLoaded bool
	currencyLoaded  bool
}

// Option configures optional cache behaviour.
type Option func(*Cache)

// WithRedis enables the shared second-level cache.
func WithRedis(client *redis.Client) Option {
	return func(c *Cache) { c.rdb = client }
}

// New creates a reference cache over the given source.
func New(source ReferenceSource, log *logger.Logger, opts ...Option) *Cache {
	c := &Cache{
		source: source,
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.stages = make(map[string]domain.StageDefinition)
	c.employees = make(map[int64]domain.Employee)
	c.employeesByName = make(map[string]int64)
	c.currencies = make(map[int64]domain.Currency)
	c.stagesLoaded = false
	c.employeesLoaded = false
	c.currencyLoaded = false
}

// StageName resolves a stage id to its human name. Resolution order: the
// hardcoded legacy table, the cached stage definitions, then humanizing the
// raw id.
func (c *Cache) StageName(ctx context.Context, id string) string {
	if name, ok := legacyStageNames[id]; ok {
		return name
	}
	c.ensureStages(ctx)
	c.mu.RLock()
	def, ok := c.stages[id]
	c.mu.RUnlock()
	if ok && def.Name != "" {
		return def.Name
	}
	return humanizeStageID(id)
}

// StageColour resolves a stage id to its display colour, empty when unknown.
func (c *Cache) StageColour(ctx context.Context, id string) string {
	if colour, ok := legacyStageColours[id]; ok {
		return colour
	}
	c.ensureStages(ctx)
	c.mu.RLock()
	def := c.stages[id]
	c.mu.RUnlock()
	return def.Colour
}

// StagesEquivalent reports whether two stage labels name the same business
// state. Exposed on the cache so callers hold a single reference-data
// dependency.
func (c *Cache) StagesEquivalent(a, b string) bool {
	return StagesEquivalent(a, b)
}

// EmployeeName resolves an employee directory id to a display name.
func (c *Cache) EmployeeName(ctx context.Context, id int64) (string, bool) {
	c.ensureEmployees(ctx)
	c.mu.RLock()
	emp, ok := c.employees[id]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	return emp.Name, true
}

// EmployeeIDByName performs the reverse name to id lookup, case-insensitive.
func (c *Cache) EmployeeIDByName(ctx context.Context, name string) (int64, bool) {
	c.ensureEmployees(ctx)
	c.mu.RLock()
	id, ok := c.employeesByName[strings.ToLower(strings.TrimSpace(name))]
	c.mu.RUnlock()
	return id, ok
}

// Employees returns the full cached directory, for batched identity passes.
func (c *Cache) Employees(ctx context.Context) []domain.Employee {
	c.ensureEmployees(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Employee, 0, len(c.employees))
	for _, emp := range c.employees {
		out = append(out, emp)
	}
	return out
}

// CurrencySymbol resolves a currency reference id to its symbol.
func (c *Cache) CurrencySymbol(ctx context.Context, id int64) (string, bool) {
	c.ensureCurrencies(ctx)
	c.mu.RLock()
	cur, ok := c.currencies[id]
	c.mu.RUnlock()
	if !ok || cur.Symbol == "" {
		return "", false
	}
	return cur.Symbol, true
}

// Invalidate drops all cached families, locally and in the shared level.
// The next lookup repopulates.
func (c *Cache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.reset()
	c.mu.Unlock()
	if c.rdb != nil {
		if err := c.rdb.Del(ctx,
			redisKeyPrefix+"stages",
			redisKeyPrefix+"employees",
			redisKeyPrefix+"currencies",
		).Err(); err != nil {
			c.log.DegradedFetch("refcache.invalidate", err)
		}
	}
}

// Warm eagerly populates any family not yet loaded. Used by callers that
// need the full reference set joined before resolution begins.
func (c *Cache) Warm(ctx context.Context) {
	c.ensureStages(ctx)
	c.ensureEmployees(ctx)
	c.ensureCurrencies(ctx)
}

// Refresh invalidates and eagerly repopulates all families.
func (c *Cache) Refresh(ctx context.Context) {
	c.Invalidate(ctx)
	c.ensureStages(ctx)
	c.ensureEmployees(ctx)
	c.ensureCurrencies(ctx)
}

func (c *Cache) ensureStages(ctx context.Context) {
	c.mu.RLock()
	loaded := c.stagesLoaded
	c.mu.RUnlock()
	if loaded {
		return
	}

	defs, err := loadFamily(ctx, c, "stages", c.source.FetchStageDefinitions)
	if err != nil {
		// Not marked loaded: the next lookup retries, callers fall back to
		// humanized ids in the meantime.
		c.log.DegradedFetch("refcache.stages", err)
		return
	}

	c.mu.Lock()
	for _, def := range defs {
		c.stages[def.ID] = def
	}
	c.stagesLoaded = true
	c.mu.Unlock()
	c.log.CacheRefresh("stages", len(defs))
}

func (c *Cache) ensureEmployees(ctx context.Context) {
	c.mu.RLock()
	loaded := c.employeesLoaded
	c.mu.RUnlock()
	if loaded {
		return
	}

	emps, err := loadFamily(ctx, c, "employees", c.source.FetchEmployees)
	if err != nil {
		c.log.DegradedFetch("refcache.employees", err)
		return
	}

	c.mu.Lock()
	for _, emp := range emps {
		c.employees[emp.ID] = emp
		key := strings.ToLower(strings.TrimSpace(emp.Name))
		if key != "" {
			if _, taken := c.employeesByName[key]; !taken {
				c.employeesByName[key] = emp.ID
			}
		}
	}
	c.employeesLoaded = true
	c.mu.Unlock()
	c.log.CacheRefresh("employees", len(emps))
}

func (c *Cache) ensureCurrencies(ctx context.Context) {
	c.mu.RLock()
	loaded := c.currencyLoaded
	c.mu.RUnlock()
	if loaded {
		return
	}

	curs, err := loadFamily(ctx, c, "currencies", c.source.FetchCurrencies)
	if err != nil {
		c.log.DegradedFetch("refcache.currencies", err)
		return
	}

	c.mu.Lock()
	for _, cur := range curs {
		c.currencies[cur.ID] = cur
	}
	c.currencyLoaded = true
	c.mu.Unlock()
	c.log.CacheRefresh("currencies", len(curs))
}

// loadFamily reads a reference family through the optional Redis level. A
// Redis hit skips the upstream fetch entirely; a miss fetches upstream and
// writes back best-effort.
func loadFamily[T any](ctx context.Context, c *Cache, family string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	key := redisKeyPrefix + family

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var rows []T
			if jsonErr := json.Unmarshal(raw, &rows); jsonErr == nil {
				return rows, nil
			}
			// Corrupt payload: fall through to the upstream fetch.
		}
	}

	rows, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil {
		if raw, jsonErr := json.Marshal(rows); jsonErr == nil {
			if setErr := c.rdb.Set(ctx, key, raw, 0).Err(); setErr != nil {
				c.log.DegradedFetch("refcache."+family+".store", setErr)
			}
		}
	}

	return rows, nil
}
