package catalog

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tachi-protocol/crawlgate/internal/models"
	"github.com/tachi-protocol/crawlgate/pkg/logger"
)

// entry is the on-disk form of a protected resource. Prices are decimal
// strings in the token's smallest unit.
type entry struct {
	Path        string `json:"path"`
	Description string `json:"description"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
	Price       string `json:"price"`
}

// Catalog is the in-memory table of protected resources, loaded from a JSON
// file. Paths not present in the catalog are not gated.
type Catalog struct {
	logger *logger.Logger

	mu        sync.RWMutex
	resources map[string]*models.Resource
}

// NewCatalog creates an empty catalog.
func NewCatalog(logger *logger.Logger) *Catalog {
	return &Catalog{
		logger:    logger,
		resources: make(map[string]*models.Resource),
	}
}

// LoadFile replaces the catalog contents with the entries from the given
// JSON file (an array of {path, description, content_type, body, price}).
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse catalog file: %w", err)
	}

	resources := make(map[string]*models.Resource, len(entries))
	for _, e := range entries {
		resource, err := toResource(e)
		if err != nil {
			return err
		}
		resources[resource.Path] = resource
	}

	c.mu.Lock()
	c.resources = resources
	c.mu.Unlock()

	c.logger.Infow("Catalog loaded", "file", path, "resources", len(resources))
	return nil
}

// Add registers a single resource. Used by tests and programmatic setups.
func (c *Catalog) Add(resource *models.Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[resource.Path] = resource
}

// Resolve returns the resource registered under path, if any.
func (c *Catalog) Resolve(path string) (*models.Resource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	resource, ok := c.resources[path]
	return resource, ok
}

// List returns all protected resources ordered by path.
func (c *Catalog) List() []*models.Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resources := make([]*models.Resource, 0, len(c.resources))
	for _, resource := range c.resources {
		resources = append(resources, resource)
	}
	sort.Slice(resources, func(i, j int) bool {
		return resources[i].Path < resources[j].Path
	})
	return resources
}

func toResource(e entry) (*models.Resource, error) {
	if e.Path == "" || !strings.HasPrefix(e.Path, "/") {
		return nil, fmt.Errorf("invalid catalog entry path: %q", e.Path)
	}
	price, ok := new(big.Int).SetString(e.Price, 10)
	if !ok || price.Sign() <= 0 {
		return nil, fmt.Errorf("invalid price %q for catalog entry %s", e.Price, e.Path)
	}
	contentType := e.ContentType
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	return &models.Resource{
		Path:        e.Path,
		Description: e.Description,
		ContentType: contentType,
		Body:        e.Body,
		Price:       price,
	}, nil
}
