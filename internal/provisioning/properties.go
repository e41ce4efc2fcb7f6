// FilePath: internal/provisioning/properties.go
package provisioning

import (
	"sort"

	"github.com/aquasense/hub/internal/models"
)

// PropertyKind distinguishes numeric from string property values.
type PropertyKind string

const (
	KindNumber PropertyKind = "number"
	KindString PropertyKind = "string"
)

// PropertySpec is the display metadata for a recognized property key.
type PropertySpec struct {
	Label string
	Kind  PropertyKind
	Unit  string
}

// Property is one structured entry of a peripheral's properties map.
type Property struct {
	Name  string       `json:"name"`
	Label string       `json:"label"`
	Kind  PropertyKind `json:"type"`
	Value interface{}  `json:"value"`
	Unit  string       `json:"unit,omitempty"`
}

// knownProperties is the versioned catalog of recognized property keys.
// Keys outside this catalog still travel opaquely in DeviceInfo.Properties;
// they are only omitted from the structured display list.
var knownProperties = map[string]PropertySpec{
	"minDistance":  {Label: "Minimum Distance (Full)", Kind: KindNumber, Unit: "cm"},
	"maxDistance":  {Label: "Maximum Distance (Empty)", Kind: KindNumber, Unit: "cm"},
	"refreshRate":  {Label: "Refresh Rate", Kind: KindNumber, Unit: "seconds"},
	"totalLitres":  {Label: "Tank Capacity", Kind: KindNumber, Unit: "litres"},
	"cloudNodeMAC": {Label: "Cloud Node MAC Address", Kind: KindString},
}

// ParseProperties converts a peripheral's properties map into the
// structured list used for rendering, keyed order made deterministic.
func ParseProperties(info *models.DeviceInfo) []Property {
	if info == nil {
		return nil
	}

	out := make([]Property, 0, len(info.Properties))
	for name, value := range info.Properties {
		spec, ok := knownProperties[name]
		if !ok {
			continue
		}
		out = append(out, Property{
			Name:  name,
			Label: spec.Label,
			Kind:  spec.Kind,
			Value: value,
			Unit:  spec.Unit,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
