package submission

import (
	"sort"
	"strconv"

	"3tcapital/ms_emision_dian/internal/application/builder"
	"3tcapital/ms_emision_dian/internal/core/document"
)

// Registry maps typeDocumentId to its processor. It is filled once by
// NewRegistry and only read afterwards.
type Registry struct {
	processors map[int]Processor
	supported  []int
}

// NewRegistry registers one processor per known document kind.
func NewRegistry(factory *builder.Factory, deps Dependencies) (*Registry, error) {
	r := &Registry{processors: make(map[int]Processor)}
	for _, kind := range document.AllKinds() {
		b, err := factory.ForKind(kind)
		if err != nil {
			return nil, err
		}
		r.processors[kind.TypeDocumentID()] = NewProcessor(b, deps)
		r.supported = append(r.supported, kind.TypeDocumentID())
	}
	sort.Ints(r.supported)
	return r, nil
}

func (r *Registry) IsSupported(typeDocumentID int) bool {
	_, ok := r.processors[typeDocumentID]
	return ok
}

// Lookup returns the processor for typeDocumentID or an UnsupportedTypeError
// listing every registered id.
func (r *Registry) Lookup(typeDocumentID int) (Processor, error) {
	if p, ok := r.processors[typeDocumentID]; ok {
		return p, nil
	}
	return nil, &document.UnsupportedTypeError{
		Value:     strconv.Itoa(typeDocumentID),
		Supported: r.SupportedIDs(),
	}
}

// SupportedIDs lists the registered ids in ascending order.
func (r *Registry) SupportedIDs() []string {
	ids := make([]string, 0, len(r.supported))
	for _, id := range r.supported {
		ids = append(ids, strconv.Itoa(id))
	}
	return ids
}
