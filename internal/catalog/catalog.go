package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog holds the static tables: routes, KPI cards, mode share, mode
// comparison and busiest stations.
type Catalog struct {
	Routes              []entities.Route           `yaml:"routes" validate:"required,min=1,dive"`
	Metrics             []entities.Metric          `yaml:"metrics" validate:"dive"`
	ModeShare           []entities.ModeShare       `yaml:"mode_share" validate:"required,min=1,dive"`
	ModeComparison      []entities.ModeComparison  `yaml:"mode_comparison" validate:"dive"`
	OriginStations      []entities.StationActivity `yaml:"origin_stations" validate:"dive"`
	DestinationStations []entities.StationActivity `yaml:"destination_stations" validate:"dive"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, falling back to the embedded one when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	total := 0
	for _, share := range c.ModeShare {
		total += share.Value
	}
	if total != 100 {
		return entities.ValidationError{Field: "mode_share", Reason: fmt.Sprintf("shares sum to %d, expected 100", total)}
	}

	for _, route := range c.Routes {
		if !knownMode(route.Mode) {
			return entities.ValidationError{Field: "routes", Reason: fmt.Sprintf("unknown mode %q for %s", route.Mode, route.Name)}
		}
	}
	return nil
}

// Clone returns a deep copy so datasets built from the catalog never share
// backing arrays.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		Routes:              append([]entities.Route(nil), c.Routes...),
		Metrics:             make([]entities.Metric, len(c.Metrics)),
		ModeShare:           append([]entities.ModeShare(nil), c.ModeShare...),
		ModeComparison:      append([]entities.ModeComparison(nil), c.ModeComparison...),
		OriginStations:      append([]entities.StationActivity(nil), c.OriginStations...),
		DestinationStations: append([]entities.StationActivity(nil), c.DestinationStations...),
	}
	for i, m := range c.Metrics {
		if m.Change != nil {
			change := *m.Change
			m.Change = &change
		}
		out.Metrics[i] = m
	}
	return out
}

func knownMode(label string) bool {
	for _, f := range []entities.ModeFilter{entities.ModeTrain, entities.ModeBus, entities.ModeFerry, entities.ModeLightRail} {
		if f.Matches(label) {
			return true
		}
	}
	return false
}
