package guestshim

import "github.com/tetratelabs/wazero/api"

// ReallocName is the export name of the generated allocator.
const ReallocName = "cabi_realloc"

// DefaultHeapBase is where allocation starts. Address 0 stays unused so a
// zero pointer always means null.
const DefaultHeapBase = 16

// Builder emits a guest module that imports host functions, re-exports
// each of them unchanged, and owns a memory with a bump cabi_realloc.
//
// The allocator returns memory in LIFO order: freeing the most recent
// allocation rewinds the heap, any other free is a no-op. Growing an
// existing block copies it to a fresh one.
type Builder struct {
	hostModuleName string
	memoryName     string
	funcs          []hostFunc
	minPages       uint32
	heapBase       uint32
}

type hostFunc struct {
	name        string
	paramTypes  []api.ValueType
	resultTypes []api.ValueType
}

// NewBuilder creates a builder importing from hostModuleName.
func NewBuilder(hostModuleName string) *Builder {
	return &Builder{
		hostModuleName: hostModuleName,
		memoryName:     "memory",
		minPages:       1,
		heapBase:       DefaultHeapBase,
	}
}

// AddFunc adds a host function to import and re-export under the same name.
func (b *Builder) AddFunc(name string, params, results []api.ValueType) {
	b.funcs = append(b.funcs, hostFunc{
		name:        name,
		paramTypes:  params,
		resultTypes: results,
	})
}

// SetMinPages sets the initial memory size in 64KiB pages.
func (b *Builder) SetMinPages(pages uint32) {
	b.minPages = pages
}

// SetHeapBase sets the first address handed out by cabi_realloc.
func (b *Builder) SetHeapBase(base uint32) {
	if base == 0 {
		base = DefaultHeapBase
	}
	b.heapBase = base
}

// Build generates the module bytes.
func (b *Builder) Build() []byte {
	var wasm []byte
	wasm = append(wasm, 0x00, 0x61, 0x73, 0x6d)
	wasm = append(wasm, 0x01, 0x00, 0x00, 0x00)

	wasm = appendSection(wasm, 0x01, b.buildTypeSection())
	if len(b.funcs) > 0 {
		wasm = appendSection(wasm, 0x02, b.buildImportSection())
	}
	wasm = appendSection(wasm, 0x03, b.buildFuncSection())
	wasm = appendSection(wasm, 0x05, b.buildMemorySection())
	wasm = appendSection(wasm, 0x06, b.buildGlobalSection())
	wasm = appendSection(wasm, 0x07, b.buildExportSection())
	wasm = appendSection(wasm, 0x0a, b.buildCodeSection())

	return wasm
}

// Type indices: one per host function, then the allocator type.
func (b *Builder) reallocType() uint32 { return uint32(len(b.funcs)) }

func (b *Builder) buildTypeSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)+1))...)

	for _, f := range b.funcs {
		section = append(section, 0x60)
		section = append(section, EncodeULEB128(uint32(len(f.paramTypes)))...)
		for _, t := range f.paramTypes {
			section = append(section, ValTypeToWasm(t))
		}
		section = append(section, EncodeULEB128(uint32(len(f.resultTypes)))...)
		for _, t := range f.resultTypes {
			section = append(section, ValTypeToWasm(t))
		}
	}

	// (old_ptr, old_size, align, new_size) -> ptr
	section = append(section, 0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f)
	return section
}

func (b *Builder) buildImportSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)))...)
	for i, f := range b.funcs {
		section = appendName(section, b.hostModuleName)
		section = appendName(section, f.name)
		section = append(section, 0x00)
		section = append(section, EncodeULEB128(uint32(i))...)
	}
	return section
}

func (b *Builder) buildFuncSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)+1))...)
	for i := range b.funcs {
		section = append(section, EncodeULEB128(uint32(i))...)
	}
	section = append(section, EncodeULEB128(b.reallocType())...)
	return section
}

func (b *Builder) buildMemorySection() []byte {
	var section []byte
	section = append(section, 0x01, 0x00)
	section = append(section, EncodeULEB128(b.minPages)...)
	return section
}

func (b *Builder) buildGlobalSection() []byte {
	var section []byte
	section = append(section, 0x01, 0x7f, 0x01, 0x41)
	section = append(section, EncodeSLEB128(int32(b.heapBase))...)
	section = append(section, 0x0b)
	return section
}

func (b *Builder) buildExportSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)+2))...)

	section = appendName(section, b.memoryName)
	section = append(section, 0x02, 0x00)

	numImports := uint32(len(b.funcs))
	for i, f := range b.funcs {
		section = appendName(section, f.name)
		section = append(section, 0x00)
		section = append(section, EncodeULEB128(numImports+uint32(i))...)
	}

	section = appendName(section, ReallocName)
	section = append(section, 0x00)
	section = append(section, EncodeULEB128(numImports*2)...)
	return section
}

func (b *Builder) buildCodeSection() []byte {
	var section []byte
	section = append(section, EncodeULEB128(uint32(len(b.funcs)+1))...)

	for i, f := range b.funcs {
		body := forwardBody(i, f)
		section = append(section, EncodeULEB128(uint32(len(body)))...)
		section = append(section, body...)
	}

	body := reallocBody()
	section = append(section, EncodeULEB128(uint32(len(body)))...)
	section = append(section, body...)
	return section
}

// forwardBody passes every parameter through to the imported function.
func forwardBody(importIdx int, f hostFunc) []byte {
	var body []byte
	body = append(body, 0x00)

	for i := range f.paramTypes {
		body = append(body, 0x20)
		body = append(body, EncodeULEB128(uint32(i))...)
	}

	body = append(body, 0x10)
	body = append(body, EncodeULEB128(uint32(importIdx))...)
	body = append(body, 0x0b)

	return body
}

// Wasm opcodes used by reallocBody.
const (
	opUnreachable = 0x00
	opBlock       = 0x02
	opLoop        = 0x03
	opIf          = 0x04
	opEnd         = 0x0b
	opBr          = 0x0c
	opBrIf        = 0x0d
	opReturn      = 0x0f
	opSelect      = 0x1b
	opLocalGet    = 0x20
	opLocalTee    = 0x22
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opMemorySize  = 0x3f
	opMemoryGrow  = 0x40
	opI32Const    = 0x41
	opI32Eqz      = 0x45
	opI32Eq       = 0x46
	opI32LtU      = 0x49
	opI32LeU      = 0x4d
	opI32Add      = 0x6a
	opI32Sub      = 0x6b
	opI32And      = 0x71
	opI32Shl      = 0x74
	opPrefixFC    = 0xfc
	opMemoryCopy  = 0x0a
	blockVoid     = 0x40
)

// reallocBody implements cabi_realloc over global 0, the heap top.
// Locals: 0 old_ptr, 1 old_size, 2 align, 3 new_size, 4 result.
func reallocBody() []byte {
	return []byte{
		// one i32 local
		0x01, 0x01, 0x7f,

		// free: rewind when the block is the most recent one, return null
		opLocalGet, 3, opI32Eqz, opIf, blockVoid,
		opLocalGet, 0, opLocalGet, 1, opI32Add, opGlobalGet, 0, opI32Eq, opIf, blockVoid,
		opLocalGet, 0, opGlobalSet, 0,
		opEnd,
		opI32Const, 0, opReturn,
		opEnd,

		// result = (heap + align - 1) & -align; heap = result + new_size
		opGlobalGet, 0, opLocalGet, 2, opI32Add, opI32Const, 1, opI32Sub,
		opI32Const, 0, opLocalGet, 2, opI32Sub, opI32And,
		opLocalTee, 4, opLocalGet, 3, opI32Add, opGlobalSet, 0,

		// grow a page at a time until the heap top fits
		opBlock, blockVoid, opLoop, blockVoid,
		opGlobalGet, 0, opMemorySize, 0x00, opI32Const, 16, opI32Shl, opI32LeU, opBrIf, 1,
		opI32Const, 1, opMemoryGrow, 0x00, opI32Const, 0x7f, opI32Eq, opIf, blockVoid,
		opUnreachable,
		opEnd,
		opBr, 0,
		opEnd, opEnd,

		// realloc: copy min(old_size, new_size) bytes
		opLocalGet, 0, opIf, blockVoid,
		opLocalGet, 4, opLocalGet, 0,
		opLocalGet, 1, opLocalGet, 3, opLocalGet, 1, opLocalGet, 3, opI32LtU, opSelect,
		opPrefixFC, opMemoryCopy, 0x00, 0x00,
		opEnd,

		opLocalGet, 4,
		opEnd,
	}
}
