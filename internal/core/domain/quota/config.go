package quota

import "fmt"

// OperationConfig describes the token bucket applied to one operation class.
// RefillRate is expressed in tokens per minute.
type OperationConfig struct {
	MaxTokens      int `json:"max_tokens"`
	RefillRate     int `json:"refill_rate"`
	CostPerRequest int `json:"cost_per_request"`
}

// DefaultOperation is the registry entry used when an operation name has no
// configuration of its own. Lookups never fail closed: an un-configured
// operation falls back to this entry so new operations keep working with
// conservative limits.
const DefaultOperation = "query.default"

// Registry is an immutable mapping from operation name to its bucket
// configuration, loaded once at startup.
type Registry struct {
	entries map[string]OperationConfig
}

// NewRegistry validates every entry and builds an immutable registry.
// The DefaultOperation entry is mandatory because Resolve falls back to it.
func NewRegistry(entries map[string]OperationConfig) (*Registry, error) {
	if _, ok := entries[DefaultOperation]; !ok {
		return nil, fmt.Errorf("registry requires a %q entry", DefaultOperation)
	}
	copied := make(map[string]OperationConfig, len(entries))
	for name, cfg := range entries {
		if cfg.MaxTokens <= 0 {
			return nil, fmt.Errorf("operation %q: max tokens must be positive, got %d", name, cfg.MaxTokens)
		}
		if cfg.RefillRate <= 0 {
			return nil, fmt.Errorf("operation %q: refill rate must be positive, got %d", name, cfg.RefillRate)
		}
		if cfg.CostPerRequest <= 0 {
			return nil, fmt.Errorf("operation %q: cost must be positive, got %d", name, cfg.CostPerRequest)
		}
		if cfg.CostPerRequest > cfg.MaxTokens {
			return nil, fmt.Errorf("operation %q: cost %d exceeds max tokens %d, operation could never succeed", name, cfg.CostPerRequest, cfg.MaxTokens)
		}
		copied[name] = cfg
	}
	return &Registry{entries: copied}, nil
}

// Lookup returns the exact configuration for an operation name.
func (r *Registry) Lookup(operation string) (OperationConfig, bool) {
	cfg, ok := r.entries[operation]
	return cfg, ok
}

// Resolve returns the configuration for an operation, falling back to the
// DefaultOperation entry when no exact match exists.
func (r *Registry) Resolve(operation string) OperationConfig {
	if cfg, ok := r.entries[operation]; ok {
		return cfg
	}
	return r.entries[DefaultOperation]
}

// Len reports the number of configured operations.
func (r *Registry) Len() int {
	return len(r.entries)
}

// DefaultRegistry returns the built-in operation configuration. Operation
// names follow the "<family>.<action>.<resource>" convention.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(map[string]OperationConfig{
		DefaultOperation:           {MaxTokens: 120, RefillRate: 120, CostPerRequest: 1},
		"query.search.contracts":   {MaxTokens: 60, RefillRate: 60, CostPerRequest: 2},
		"query.list.contracts":     {MaxTokens: 120, RefillRate: 120, CostPerRequest: 1},
		"mutation.create.contracts": {MaxTokens: 30, RefillRate: 15, CostPerRequest: 2},
		"mutation.update.contracts": {MaxTokens: 30, RefillRate: 15, CostPerRequest: 2},
		"mutation.delete.contracts": {MaxTokens: 15, RefillRate: 10, CostPerRequest: 3},
		"action.export":            {MaxTokens: 10, RefillRate: 2, CostPerRequest: 5},
		"auth.login":               {MaxTokens: 10, RefillRate: 5, CostPerRequest: 1},
		"query.quota.status":       {MaxTokens: 60, RefillRate: 60, CostPerRequest: 1},
		"query.list.audit":         {MaxTokens: 30, RefillRate: 30, CostPerRequest: 2},
	})
	if err != nil {
		// The built-in table is validated by tests; a failure here is a programming error.
		panic(err)
	}
	return r
}
