package acme

import (
	"testing"

	"github.com/blendsdk/blend65/internal/asmil"
	"github.com/blendsdk/blend65/testutil"
)

// TestEmitMatchesGoldenAssembly snapshots the emitted assembly for a small,
// deterministic instruction sequence the way the teacher's golden-file
// harness snapshotted AILANG eval traces, retargeted here at ASM-IL text.
func TestEmitMatchesGoldenAssembly(t *testing.T) {
	b := asmil.NewBuilder("demo")
	b.Label("_main", asmil.LabelCode, true)
	b.Immediate("LDA", 0)
	b.ZeroPage("STA", 0x02)
	b.Return()
	mod := b.Finish()

	testutil.CompareWithGolden(t, "acme", "emit_small_function", Emit(mod))
}
