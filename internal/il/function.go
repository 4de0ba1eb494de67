package il

// BlockID identifies a basic block within one function.
type BlockID int

// Block is a maximal straight-line sequence of instructions ending in
// exactly one terminator, with PHI instructions preceding everything
// else (spec §3, Basic block; §4.7 invariants).
type Block struct {
	ID           BlockID
	Label        string
	Instructions []*Instruction
	Preds        []BlockID
	Succs        []BlockID
}

// Terminator returns the block's single terminating instruction, or nil
// if the block is malformed (a compiler bug, never expected at runtime).
func (b *Block) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	if last.IsTerminator() {
		return last
	}
	return nil
}

// Function is one IL function (spec §3, IL function). Its entry block is
// always the first block created.
type Function struct {
	Name       string
	ParamTypes []Type
	ReturnType Type
	Blocks     []*Block
	EntryBlock BlockID
	IsInterrupt bool

	nextBlockID BlockID
	nextRegID   RegID
}

// NewFunction creates an empty function ready for block/register
// allocation.
func NewFunction(name string, paramTypes []Type, ret Type, isInterrupt bool) *Function {
	return &Function{Name: name, ParamTypes: paramTypes, ReturnType: ret, IsInterrupt: isInterrupt}
}

// NewBlock appends and returns a new block; the first call also becomes
// the function's entry block.
func (f *Function) NewBlock(label string) *Block {
	id := f.nextBlockID
	f.nextBlockID++
	b := &Block{ID: id, Label: label}
	if len(f.Blocks) == 0 {
		f.EntryBlock = id
	}
	f.Blocks = append(f.Blocks, b)
	return b
}

// NewReg allocates a fresh typed virtual register.
func (f *Function) NewReg(t Type, name string) Reg {
	r := Reg{ID: f.nextRegID, Type: t, Name: name}
	f.nextRegID++
	return r
}

// Block looks up a block by ID; panics on an unknown ID, since a dangling
// block reference is an internal invariant violation (spec §7).
func (f *Function) Block(id BlockID) *Block {
	for _, b := range f.Blocks {
		if b.ID == id {
			return b
		}
	}
	panic("il: unknown block id, internal invariant violation")
}

// AddEdge wires a predecessor/successor relationship between two blocks
// already present in f.
func (f *Function) AddEdge(from, to BlockID) {
	fb, tb := f.Block(from), f.Block(to)
	fb.Succs = append(fb.Succs, to)
	tb.Preds = append(tb.Preds, from)
}

// Emit appends instr to block, assigning it a function-unique ID.
// PHI instructions must be emitted before any non-PHI instruction in the
// same block, which callers (the IL generator) are responsible for
// respecting; Emit itself does not reorder.
func (f *Function) Emit(block *Block, instr *Instruction) {
	instr.ID = len(block.Instructions)
	block.Instructions = append(block.Instructions, instr)
}

// Module is a collection of IL functions and globals for one compiled
// module (spec §3, IL module).
type Module struct {
	Name       string
	Functions  map[string]*Function
	Globals    map[string]Global
	EntryPoint string // function name, if any
	Metadata   map[string]string
}

// Global describes one module-level variable's IL-visible shape.
type Global struct {
	Name    string
	Type    Type
	Storage string // mirrors ast.StorageClass.String()
}

// NewModule creates an empty IL module.
func NewModule(name string) *Module {
	return &Module{
		Name:      name,
		Functions: make(map[string]*Function),
		Globals:   make(map[string]Global),
		Metadata:  make(map[string]string),
	}
}

// AddFunction registers fn under its own name.
func (m *Module) AddFunction(fn *Function) { m.Functions[fn.Name] = fn }

// AddGlobal registers a global variable.
func (m *Module) AddGlobal(g Global) { m.Globals[g.Name] = g }
