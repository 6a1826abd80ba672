package driver

import (
	"veq/internal/sema"
	"veq/internal/unit"
)

// SpecSummary is the display and cache form of one frozen equality spec.
// States and body kinds are stored as their String() spelling so cache
// entries stay readable and survive enum reordering.
type SpecSummary struct {
	Name               string `msgpack:"name" json:"name"`
	State              string `msgpack:"state" json:"state"`
	TypedSynthesized   bool   `msgpack:"typed_synth" json:"typed_synthesized"`
	UntypedSynthesized bool   `msgpack:"untyped_synth" json:"untyped_synthesized"`
	// TypedBody and UntypedBody name how each member is implemented;
	// empty when the member is absent (error states only).
	TypedBody   string `msgpack:"typed_body,omitempty" json:"typed_body,omitempty"`
	UntypedBody string `msgpack:"untyped_body,omitempty" json:"untyped_body,omitempty"`
}

// Summarize flattens the frozen specs of a finished analysis, in
// declaration order.
func Summarize(a *sema.Analysis) []SpecSummary {
	u := a.Unit()
	out := make([]SpecSummary, 0, u.DeclCount())
	for id := unit.TypeDeclID(1); int(id) <= u.DeclCount(); id++ {
		spec := a.Spec(id)
		s := SpecSummary{
			Name:               declName(u, id),
			State:              spec.State.String(),
			TypedSynthesized:   spec.TypedSynthesized,
			UntypedSynthesized: spec.UntypedSynthesized,
		}
		if spec.Typed != nil {
			s.TypedBody = spec.Typed.Body.String()
		}
		if spec.Untyped != nil {
			s.UntypedBody = spec.Untyped.Body.String()
		}
		out = append(out, s)
	}
	return out
}
