package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ResourceType identifica um pool de recurso governado de forma independente.
//
// O conjunto é fechado: para adicionar um recurso, acrescente uma constante
// aqui e o nome correspondente em resourceNames.
type ResourceType int

const (
	ResourceCPU ResourceType = iota
	ResourceMemory
	ResourceDisk
	ResourceNetwork
	ResourceConnections
	ResourceQueries
)

var resourceNames = [...]string{
	ResourceCPU:         "cpu",
	ResourceMemory:      "memory",
	ResourceDisk:        "disk",
	ResourceNetwork:     "network",
	ResourceConnections: "connections",
	ResourceQueries:     "queries",
}

// ErrUnknownResource é retornado ao interpretar um nome de recurso fora do conjunto.
var ErrUnknownResource = errors.New("unknown resource type")

// ResourceTypes retorna todos os recursos conhecidos, na ordem de declaração.
func ResourceTypes() []ResourceType {
	out := make([]ResourceType, len(resourceNames))
	for i := range resourceNames {
		out[i] = ResourceType(i)
	}
	return out
}

func (t ResourceType) Valid() bool {
	return t >= 0 && int(t) < len(resourceNames)
}

func (t ResourceType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("resource(%d)", int(t))
	}
	return resourceNames[t]
}

// ParseResourceType aceita o nome canônico (ex: "cpu"), sem diferenciar maiúsculas.
func ParseResourceType(s string) (ResourceType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range resourceNames {
		if n == name {
			return ResourceType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownResource, s)
}

// MarshalText permite usar ResourceType como valor e como chave de map em JSON.
func (t ResourceType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownResource, int(t))
	}
	return []byte(t.String()), nil
}

func (t *ResourceType) UnmarshalText(b []byte) error {
	v, err := ParseResourceType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
