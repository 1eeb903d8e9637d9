package ports

import "github.com/jsamuelsen/quote-engine/internal/domain/serializer"

// SerializerRegistry resolves a line type's serializer name.
// Unknown names yield *domain.PluginResolutionError.
type SerializerRegistry interface {
	Resolve(name string) (serializer.LineSerializer, error)
}
