package asmil

// Stats accumulates the byte totals the code generator reports in its
// footer comment (spec §4.9 step 7).
type Stats struct {
	CodeBytes int
	DataBytes int
}

// Module is the finished, ordered sequence of ASM-IL items the ACME
// emitter walks to produce assembler text.
type Module struct {
	Name  string
	Items []Item

	Stats Stats
}

// Builder accumulates Items in program order while tracking the
// current assembly address, so callers can emit address-dependent
// items (e.g. a label's resolved Address) without a second pass.
//
// CurrentAddress starts at 0; callers that care about absolute
// addresses call Origin first.
type Builder struct {
	mod            Module
	currentAddress int
}

func NewBuilder(name string) *Builder {
	return &Builder{mod: Module{Name: name}}
}

func (b *Builder) append(it Item) {
	b.mod.Items = append(b.mod.Items, it)
}

// CurrentAddress reports the builder's running program-counter estimate.
func (b *Builder) CurrentAddress() int { return b.currentAddress }

// Origin emits a `* = $addr` style origin marker and resets the running
// address to match.
func (b *Builder) Origin(addr int) {
	b.append(Item{Kind: ItemOrigin, OriginAddress: addr})
	b.currentAddress = addr
}

// Label emits a code or data label at the current address.
func (b *Builder) Label(name string, kind LabelType, exported bool) {
	addr := b.currentAddress
	b.append(Item{Kind: ItemLabel, LabelName: name, LabelKind: kind, Exported: exported, Address: &addr})
}

// Comment emits a standalone or trailing remark with no code effect.
func (b *Builder) Comment(text string, style CommentStyle) {
	b.append(Item{Kind: ItemComment, Text: text, Style: style})
}

func (b *Builder) BlankLine() {
	b.append(Item{Kind: ItemBlankLine})
}

// Raw emits a pre-formatted line verbatim, bypassing the instruction
// table (used for assembler pragmas the model has no typed item for).
func (b *Builder) Raw(text string) {
	b.append(Item{Kind: ItemRaw, Raw: text})
}

// instr is the shared emission path for every typed instruction helper
// below: it looks up byte size and cycle cost, records them on the
// Item, and advances CurrentAddress/Stats.CodeBytes.
func (b *Builder) instr(mnemonic string, mode AddressingMode, operand Operand) {
	bytes, cycles, ok := Lookup(mnemonic, mode)
	if !ok {
		panic("asmil: illegal instruction/mode combination: " + mnemonic + " " + mode.String())
	}
	b.append(Item{
		Kind:     ItemInstruction,
		Mnemonic: mnemonic,
		Mode:     mode,
		Operand:  operand,
		Cycles:   cycles,
		Bytes:    bytes,
	})
	b.currentAddress += bytes
	b.mod.Stats.CodeBytes += bytes
}

// Implied emits a zero-operand instruction (RTS, NOP, SEI, PHA, ...).
func (b *Builder) Implied(mnemonic string) { b.instr(mnemonic, Implied, Operand{}) }

// Accumulator emits an accumulator-mode instruction (ASL A, LSR A, ...).
func (b *Builder) Accumulator(mnemonic string) { b.instr(mnemonic, Accumulator, Operand{}) }

// Immediate emits `mnemonic #value`.
func (b *Builder) Immediate(mnemonic string, value int) {
	b.instr(mnemonic, Immediate, ValueOperand(value))
}

// ZeroPage emits `mnemonic zp`.
func (b *Builder) ZeroPage(mnemonic string, addr int) {
	b.instr(mnemonic, ZeroPage, ValueOperand(addr))
}

func (b *Builder) ZeroPageX(mnemonic string, addr int) {
	b.instr(mnemonic, ZeroPageX, ValueOperand(addr))
}

func (b *Builder) ZeroPageY(mnemonic string, addr int) {
	b.instr(mnemonic, ZeroPageY, ValueOperand(addr))
}

// Absolute emits `mnemonic label_or_addr`.
func (b *Builder) Absolute(mnemonic string, operand Operand) {
	b.instr(mnemonic, Absolute, operand)
}

func (b *Builder) AbsoluteX(mnemonic string, operand Operand) {
	b.instr(mnemonic, AbsoluteX, operand)
}

func (b *Builder) AbsoluteY(mnemonic string, operand Operand) {
	b.instr(mnemonic, AbsoluteY, operand)
}

func (b *Builder) IndirectX(mnemonic string, zp int) {
	b.instr(mnemonic, IndirectX, ValueOperand(zp))
}

func (b *Builder) IndirectY(mnemonic string, zp int) {
	b.instr(mnemonic, IndirectY, ValueOperand(zp))
}

func (b *Builder) Indirect(mnemonic string, operand Operand) {
	b.instr(mnemonic, Indirect, operand)
}

// Branch emits a relative-mode branch (BEQ, BNE, BCC, ...) to a label;
// ACME resolves the displacement at assembly time, so the operand here
// always carries the target label rather than a precomputed offset.
func (b *Builder) Branch(mnemonic, targetLabel string) {
	b.instr(mnemonic, Relative, LabelOperand(targetLabel))
}

// Jump emits JMP to an absolute label.
func (b *Builder) Jump(targetLabel string) {
	b.instr("JMP", Absolute, LabelOperand(targetLabel))
}

// Call emits JSR to an absolute label.
func (b *Builder) Call(targetLabel string) {
	b.instr("JSR", Absolute, LabelOperand(targetLabel))
}

func (b *Builder) Return() { b.Implied("RTS") }

// dataBytes is the shared bookkeeping for every data directive: it
// appends the Item and advances CurrentAddress/Stats.DataBytes by n.
func (b *Builder) dataBytes(it Item, n int) {
	b.append(it)
	b.currentAddress += n
	b.mod.Stats.DataBytes += n
}

// Byte emits a `!byte v1, v2, ...` directive.
func (b *Builder) Byte(values ...int) {
	b.dataBytes(Item{Kind: ItemData, DataType: DataByte, DataValues: values}, len(values))
}

// Word emits a `!word v1, v2, ...` directive (2 bytes per value).
func (b *Builder) Word(values ...int) {
	b.dataBytes(Item{Kind: ItemData, DataType: DataWord, DataValues: values}, len(values)*2)
}

// WordLabel emits `!word label` — a 2-byte pointer to a code or data
// label, used for jump tables and vector tables.
func (b *Builder) WordLabel(label string) {
	b.dataBytes(Item{Kind: ItemData, DataType: DataWord, DataValues: []int{0}, DataText: label}, 2)
}

// Text emits a `!text "..."` directive with no terminator.
func (b *Builder) Text(s string) {
	b.dataBytes(Item{Kind: ItemData, DataType: DataText, DataText: s}, len(s))
}

// TextNullTerminated emits a `!text "...", 0` directive.
func (b *Builder) TextNullTerminated(s string) {
	b.dataBytes(Item{Kind: ItemData, DataType: DataText, DataText: s, DataValues: []int{0}}, len(s)+1)
}

// Fill emits `!fill n, value` — n repetitions of a single byte value.
func (b *Builder) Fill(n, value int) {
	b.dataBytes(Item{Kind: ItemData, DataType: DataFill, FillLength: n, DataValues: []int{value}}, n)
}

// Zero reserves n zero-initialized bytes (storage-class `@ram`/`@zp`
// globals with no initializer: spec §4.9 step 1).
func (b *Builder) Zero(n int) { b.Fill(n, 0) }

// Finish returns the finished Module. The builder must not be reused
// afterward.
func (b *Builder) Finish() Module {
	return b.mod
}
