package pipeline

import (
	"github.com/matzehuels/regionsync/pkg/result"
	"github.com/matzehuels/regionsync/pkg/syncer"
	"github.com/matzehuels/regionsync/pkg/txn"
)

// Report is the serializable summary of a layout operation.
type Report struct {
	Strategy string   `json:"strategy,omitempty"`
	States   []string `json:"states,omitempty"`
	Passes   int      `json:"passes,omitempty"`

	Layout         string   `json:"layout"`
	FailedLinks    []string `json:"failed_links,omitempty"`
	PadFailedLinks []string `json:"pad_failed_links,omitempty"`

	Color     string     `json:"color"`
	Collision *[2]string `json:"collision,omitempty"`

	Delta *txn.Delta `json:"delta,omitempty"`
}

// NewReport summarizes a routing result.
func NewReport(r result.RoutingResult) Report {
	rep := Report{
		Layout:         r.Layout.String(),
		FailedLinks:    r.FailedLinks(),
		PadFailedLinks: r.PadFailedLinks(),
		Color:          r.Color.String(),
	}
	if r.Collision != nil {
		rep.Collision = &[2]string{r.Collision.A, r.Collision.B}
	}
	return rep
}

// SyncReport summarizes a committed synchronization.
func SyncReport(o syncer.Outcome) Report {
	rep := NewReport(o.Result)
	rep.Strategy = o.Strategy.String()
	rep.Passes = o.Passes
	for _, s := range o.States {
		rep.States = append(rep.States, s.String())
	}
	if !o.Delta.Empty() || o.Delta.ID != "" {
		d := o.Delta
		rep.Delta = &d
	}
	return rep
}

// Clean reports whether neither a layout problem nor a color collision was
// found.
func (r Report) Clean() bool {
	return r.Layout == result.LayoutOK.String() && r.Color == result.ColorOK.String()
}
