package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vango-dev/thinclient/pkg/dom"
	"github.com/vango-dev/thinclient/pkg/protocol"
)

// ApplyState is the position of the application cursor.
type ApplyState struct {
	Applying bool
	Index    int // Patch being applied, valid while Applying
	Total    int // Patches in the current batch, valid while Applying
}

// String returns "Idle" or "Applying[i]".
func (s ApplyState) String() string {
	if !s.Applying {
		return "Idle"
	}
	return fmt.Sprintf("Applying[%d]", s.Index)
}

// Result summarizes one batch application.
type Result struct {
	Applied int
	Skipped int
	Faults  []*PatchFault
}

// Applier applies patch batches to a Document, strictly in order.
type Applier struct {
	Doc          *dom.Document
	Materializer *Materializer
	Policy       FaultPolicy
	Logger       *slog.Logger

	state ApplyState
}

// NewApplier creates an Applier.
func NewApplier(doc *dom.Document, m *Materializer, policy FaultPolicy, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		Doc:          doc,
		Materializer: m,
		Policy:       policy,
		Logger:       logger,
	}
}

// State returns the cursor position. It reads Idle between batches.
func (a *Applier) State() ApplyState {
	return a.state
}

// Apply runs patches one after another; each one resolves its path
// against the tree left by the previous one. A batch is never interrupted
// from outside: ctx only carries request-scoped values for logging.
//
// The returned error is nil or a *BatchError.
func (a *Applier) Apply(ctx context.Context, patches []protocol.Patch) (Result, error) {
	var res Result
	if len(patches) == 0 {
		return res, nil
	}

	defer func() { a.state = ApplyState{} }()

	for i, p := range patches {
		a.state = ApplyState{Applying: true, Index: i, Total: len(patches)}

		if err := a.applyOne(p); err != nil {
			fault := &PatchFault{Index: i, Patch: p, Err: err}
			res.Faults = append(res.Faults, fault)
			a.Logger.WarnContext(ctx, "patch fault",
				"index", i,
				"op", p.Op().String(),
				"path", p.Target().String(),
				"error", err)

			if a.Policy == HaltBatch {
				res.Skipped = len(patches) - i - 1
				break
			}
			continue
		}
		res.Applied++
	}

	if len(res.Faults) > 0 {
		return res, &BatchError{
			Policy:  a.Policy,
			Faults:  res.Faults,
			Skipped: res.Skipped,
		}
	}
	return res, nil
}

func (a *Applier) applyOne(p protocol.Patch) error {
	target, err := a.Doc.Resolve(p.Target())
	if err != nil {
		return err
	}

	switch p := p.(type) {
	case *protocol.ReplaceNode:
		n, err := a.Materializer.Materialize(p.Node)
		if err != nil {
			return err
		}
		return a.Doc.Substitute(target, n)

	case *protocol.AddNode:
		n, err := a.Materializer.Materialize(p.Node)
		if err != nil {
			return err
		}
		return target.AppendChild(n)

	case *protocol.SetAttribute:
		if p.Name == dom.ValueAttribute {
			return target.SetValue(p.Value)
		}
		return target.SetAttribute(p.Name, p.Value)

	case *protocol.ReplaceText:
		return a.Doc.Substitute(target, dom.NewText(p.Text))

	default:
		panic(fmt.Sprintf("client: unhandled patch type %T", p))
	}
}
